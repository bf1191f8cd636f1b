// Package talent defines the talent profile model shared by the chat and
// retrieval layers.
package talent

import (
	"strconv"
	"strings"
)

// Profile describes a candidate. It is caller-owned input: this subsystem
// reads it to build prompts and index documents but never mutates it.
type Profile struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Position       string   `json:"position,omitempty"`
	Skills         []string `json:"skills"`
	Experience     string   `json:"experience,omitempty"`
	Description    string   `json:"description"`
	HourlyRate     float64  `json:"hourlyRate"`
	Rating         float64  `json:"rating"`
	Education      string   `json:"education,omitempty"`
	Projects       string   `json:"projects,omitempty"`
	Certifications string   `json:"certifications,omitempty"`
	Languages      string   `json:"languages,omitempty"`
}

// Summary flattens the profile into the line-per-field text that gets
// indexed as the talent's profile document. Optional fields that are absent
// are omitted entirely rather than rendered empty.
func (p *Profile) Summary() string {
	var b strings.Builder

	b.WriteString("Name: " + p.Name)
	if p.Position != "" {
		b.WriteString("\nPosition: " + p.Position)
	}
	if p.Experience != "" {
		b.WriteString("\nExperience: " + p.Experience)
	}
	if len(p.Skills) > 0 {
		b.WriteString("\nSkills: " + strings.Join(p.Skills, ","))
	}
	if p.Description != "" {
		b.WriteString("\nDescription: " + p.Description)
	}
	if p.HourlyRate > 0 {
		b.WriteString("\nHourly rate: " + strconv.FormatFloat(p.HourlyRate, 'f', -1, 64))
	}
	if p.Rating > 0 {
		b.WriteString("\nRating: " + strconv.FormatFloat(p.Rating, 'f', -1, 64))
	}
	if p.Education != "" {
		b.WriteString("\nEducation: " + p.Education)
	}
	if p.Projects != "" {
		b.WriteString("\nProjects: " + p.Projects)
	}
	if p.Certifications != "" {
		b.WriteString("\nCertifications: " + p.Certifications)
	}
	if p.Languages != "" {
		b.WriteString("\nLanguages: " + p.Languages)
	}

	return b.String()
}
