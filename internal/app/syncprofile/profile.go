// Package syncprofile reshapes payloads exchanged with external academic systems.
package syncprofile

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/yigit/examprogress/internal/app/models"
)

// ErrInvalidPayload is returned when an inbound body carries no student list.
var ErrInvalidPayload = errors.New("Invalid external data format")

// Profile converts between snapshots and one external system's wire shape.
type Profile interface {
	Name() string
	// Outbound builds the body POSTed to the external /import endpoint.
	Outbound(snapshot *models.BackupSnapshot) any
	// Inbound decodes a body from the external /export endpoint.
	Inbound(body []byte) ([]models.Student, error)
}

// Profile names
const (
	Siakad  = "siakad"
	Feeder  = "feeder"
	Generic = "generic"
)

var profiles = map[string]Profile{
	Siakad: siakadProfile{},
	Feeder: feederProfile{},
}

// For returns the profile for a system name, case-insensitively. Unknown names get
// the generic pass-through profile.
func For(systemType string) Profile {
	if p, ok := profiles[strings.ToLower(strings.TrimSpace(systemType))]; ok {
		return p
	}
	return genericProfile{}
}

// SupportedSystems lists the display names of the systems a sync can target.
func SupportedSystems() []string {
	return []string{"SIAKAD", "FEEDER", "Custom API"}
}

type genericProfile struct{}

func (genericProfile) Name() string { return Generic }

func (genericProfile) Outbound(snapshot *models.BackupSnapshot) any { return snapshot }

func (genericProfile) Inbound(body []byte) ([]models.Student, error) {
	var payload struct {
		Students *[]models.Student `json:"students"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Students == nil {
		return nil, ErrInvalidPayload
	}
	return *payload.Students, nil
}

// siakadProfile speaks the SIAKAD "mahasiswa" shape.
type siakadProfile struct{}

type siakadStudent struct {
	NIM           string  `json:"nim"`
	Nama          string  `json:"nama"`
	JudulProposal *string `json:"judul_proposal"`
	StatusKompre  bool    `json:"status_kompre"`
	TanggalUJ3    *string `json:"tanggal_uj3"`
	TanggalSUP    *string `json:"tanggal_sup"`
	TanggalSHP    *string `json:"tanggal_shp"`
	TanggalUK     *string `json:"tanggal_uk"`
}

type siakadPayload struct {
	Version   string          `json:"version,omitempty"`
	Mahasiswa []siakadStudent `json:"mahasiswa"`
}

func (siakadProfile) Name() string { return Siakad }

func (siakadProfile) Outbound(snapshot *models.BackupSnapshot) any {
	out := siakadPayload{Version: snapshot.Version, Mahasiswa: make([]siakadStudent, 0, len(snapshot.Data.Students))}
	for _, s := range snapshot.Data.Students {
		out.Mahasiswa = append(out.Mahasiswa, siakadStudent{
			NIM:           s.NIM,
			Nama:          s.Name,
			JudulProposal: s.ThesisTitle,
			StatusKompre:  s.IsCompleted,
			TanggalUJ3:    s.UJ3Date,
			TanggalSUP:    s.SUPDate,
			TanggalSHP:    s.SHPDate,
			TanggalUK:     s.UKDate,
		})
	}
	return out
}

func (siakadProfile) Inbound(body []byte) ([]models.Student, error) {
	var payload siakadPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, ErrInvalidPayload
	}
	students := make([]models.Student, 0, len(payload.Mahasiswa))
	for _, m := range payload.Mahasiswa {
		students = append(students, models.Student{
			NIM:         m.NIM,
			Name:        m.Nama,
			ThesisTitle: m.JudulProposal,
			IsCompleted: m.StatusKompre,
			UJ3Date:     m.TanggalUJ3,
			SUPDate:     m.TanggalSUP,
			SHPDate:     m.TanggalSHP,
			UKDate:      m.TanggalUK,
		})
	}
	return students, nil
}

// feederProfile speaks the PDDikti Feeder "data_mahasiswa" shape.
type feederProfile struct{}

const (
	feederGraduated = "LULUS"
	feederActive    = "AKTIF"
)

type feederStudent struct {
	NIMMahasiswa    string  `json:"nim_mahasiswa"`
	NamaMahasiswa   string  `json:"nama_mahasiswa"`
	JudulTugasAkhir *string `json:"judul_tugas_akhir"`
	StatusKelulusan string  `json:"status_kelulusan"`
}

type feederPayload struct {
	DataMahasiswa []feederStudent `json:"data_mahasiswa"`
}

func (feederProfile) Name() string { return Feeder }

func (feederProfile) Outbound(snapshot *models.BackupSnapshot) any {
	out := feederPayload{DataMahasiswa: make([]feederStudent, 0, len(snapshot.Data.Students))}
	for _, s := range snapshot.Data.Students {
		status := feederActive
		if s.IsCompleted {
			status = feederGraduated
		}
		out.DataMahasiswa = append(out.DataMahasiswa, feederStudent{
			NIMMahasiswa:    s.NIM,
			NamaMahasiswa:   s.Name,
			JudulTugasAkhir: s.ThesisTitle,
			StatusKelulusan: status,
		})
	}
	return out
}

func (feederProfile) Inbound(body []byte) ([]models.Student, error) {
	var payload feederPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, ErrInvalidPayload
	}
	students := make([]models.Student, 0, len(payload.DataMahasiswa))
	for _, m := range payload.DataMahasiswa {
		students = append(students, models.Student{
			NIM:         m.NIMMahasiswa,
			Name:        m.NamaMahasiswa,
			ThesisTitle: m.JudulTugasAkhir,
			IsCompleted: m.StatusKelulusan == feederGraduated,
		})
	}
	return students, nil
}
