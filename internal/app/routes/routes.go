package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/examprogress/internal/app/controllers"
	"github.com/yigit/examprogress/internal/middleware"
	"github.com/yigit/examprogress/internal/pkg/metrics"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	studentController *controllers.StudentController,
	dosenController *controllers.DosenController,
	dataController *controllers.DataController,
	settingsController *controllers.SettingsController,
	authMiddleware *middleware.AuthMiddleware,
) {
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")

	// --- Public routes ---
	api.POST("/auth/login", authController.Login)

	students := api.Group("/students")
	{
		students.GET("", studentController.ListStudents)
		students.GET("/statistics", studentController.GetStatistics)
		students.GET("/archive", studentController.GetArchive)
		students.GET("/:id", studentController.GetStudent)
	}

	dosen := api.Group("/dosen")
	{
		dosen.GET("", dosenController.ListDosen)
		dosen.GET("/:name/students", dosenController.GetSupervisedStudents)
	}

	// --- Authenticated Routes Group ---
	authenticated := api.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/change-password", authController.ChangePassword)

		studentsProtected := authenticated.Group("/students")
		{
			studentsProtected.POST("", studentController.CreateStudent)
			studentsProtected.PUT("/:id", studentController.UpdateStudent)
			studentsProtected.DELETE("/:id", studentController.DeleteStudent)
			studentsProtected.POST("/:id/complete", studentController.CompleteStudent)
		}

		dosenProtected := authenticated.Group("/dosen")
		{
			dosenProtected.POST("", dosenController.CreateDosen)
			dosenProtected.DELETE("/:name", dosenController.DeleteDosen)
		}

		data := authenticated.Group("/data")
		{
			data.GET("/backup", dataController.GetBackup)
			data.POST("/backup", dataController.RestoreBackup)
			data.POST("/backup/auto", dataController.RunAutoBackup)
			data.GET("/backup/auto/:key", dataController.GetAutoBackup)
			data.POST("/backup/cleanup", dataController.CleanupBackups)

			data.GET("/export", dataController.Export)
			data.POST("/export", dataController.ValidateImport)

			data.GET("/maintenance", dataController.GetMaintenance)
			data.POST("/maintenance", dataController.RepairIssues)

			data.GET("/sync", dataController.GetSync)
			data.POST("/sync", dataController.Sync)
		}

		settings := authenticated.Group("/settings")
		{
			settings.GET("", settingsController.GetSettings)
			settings.PUT("", settingsController.UpdateSettings)
			settings.POST("/reset", settingsController.ResetSettings)
		}
	}
}
