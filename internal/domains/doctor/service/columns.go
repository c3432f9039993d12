package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/doctor/model"
)

// Field identifies one column of the workbook layout.
type Field int

const (
	FieldIndex Field = iota
	FieldName
	FieldEmail
	FieldSpecialty
	FieldGender
	FieldStatus
	FieldContactPerson
	FieldCurrentBrand
	FieldPriceRange
	FieldHasSocialMedia
	FieldSocialMediaLink
	FieldCreatedAt
	FieldUpdatedAt
)

const timestampLayout = "2006-01-02 15:04:05"

// standardMatchRatio is the share of canonical labels that must sit at their
// canonical position for a header row to be taken as the standard layout.
const standardMatchRatio = 0.7

// Column describes how a field is written by the exporter and found and read
// by the importer.
type Column struct {
	Field Field
	Label string
	Width float64

	// aliases are extra exact labels, keywords are groups of terms that must
	// all appear in a header cell, excludes veto a keyword match.
	aliases  []string
	keywords [][]string
	excludes []string

	export func(index int, d *model.Doctor) interface{}
	// assign is nil for columns that are never imported.
	assign func(d *model.Doctor, value string)
}

func optional(get func(d *model.Doctor) *string, set func(d *model.Doctor, v *string)) (func(int, *model.Doctor) interface{}, func(*model.Doctor, string)) {
	return func(_ int, d *model.Doctor) interface{} { return model.Deref(get(d)) },
		func(d *model.Doctor, v string) { set(d, model.StringPtr(v)) }
}

func column(field Field, label string, width float64, aliases []string, keywords [][]string, excludes []string,
	export func(int, *model.Doctor) interface{}, assign func(*model.Doctor, string)) Column {
	return Column{
		Field:    field,
		Label:    label,
		Width:    width,
		aliases:  aliases,
		keywords: keywords,
		excludes: excludes,
		export:   export,
		assign:   assign,
	}
}

// CanonicalColumns is the versioned column order shared by export and import.
var CanonicalColumns = buildCanonicalColumns()

func buildCanonicalColumns() []Column {
	emailOut, emailIn := optional(func(d *model.Doctor) *string { return d.Email }, func(d *model.Doctor, v *string) { d.Email = v })
	specOut, specIn := optional(func(d *model.Doctor) *string { return d.Specialty }, func(d *model.Doctor, v *string) { d.Specialty = v })
	genderOut, genderIn := optional(func(d *model.Doctor) *string { return d.Gender }, func(d *model.Doctor, v *string) { d.Gender = v })
	contactOut, contactIn := optional(func(d *model.Doctor) *string { return d.ContactPerson }, func(d *model.Doctor, v *string) { d.ContactPerson = v })
	brandOut, brandIn := optional(func(d *model.Doctor) *string { return d.CurrentBrand }, func(d *model.Doctor, v *string) { d.CurrentBrand = v })
	priceOut, priceIn := optional(func(d *model.Doctor) *string { return d.PriceRange }, func(d *model.Doctor, v *string) { d.PriceRange = v })
	socialOut, socialIn := optional(func(d *model.Doctor) *string { return d.HasSocialMedia }, func(d *model.Doctor, v *string) { d.HasSocialMedia = v })
	linkOut, linkIn := optional(func(d *model.Doctor) *string { return d.SocialMediaLink }, func(d *model.Doctor, v *string) { d.SocialMediaLink = v })

	return []Column{
		column(FieldIndex, "No.", 8,
			[]string{"no", "#", "index"}, [][]string{{"serial"}}, nil,
			func(i int, _ *model.Doctor) interface{} { return i + 1 }, nil),
		column(FieldName, "Doctor", 20,
			[]string{"name", "doctor name"}, [][]string{{"doctor"}, {"name"}}, []string{"social", "contact", "brand", "mail", "link"},
			func(_ int, d *model.Doctor) interface{} { return d.Name },
			func(d *model.Doctor, v string) { d.Name = strings.TrimSpace(v) }),
		column(FieldEmail, "Email", 28,
			[]string{"e-mail", "email address"}, [][]string{{"email"}, {"e-mail"}, {"mail"}}, nil,
			emailOut, emailIn),
		column(FieldSpecialty, "Specialty", 15,
			[]string{"department", "speciality"}, [][]string{{"special"}, {"department"}}, nil,
			specOut, specIn),
		column(FieldGender, "Gender", 10,
			[]string{"sex"}, [][]string{{"gender"}, {"sex"}}, nil,
			genderOut, genderIn),
		column(FieldStatus, "Status", 18,
			[]string{"cooperation status", "stage"}, [][]string{{"status"}, {"stage"}}, nil,
			func(_ int, d *model.Doctor) interface{} { return d.Status },
			func(d *model.Doctor, v string) { d.Status = strings.TrimSpace(v) }),
		column(FieldContactPerson, "Contact Person", 15,
			[]string{"contact"}, [][]string{{"contact", "person"}, {"contact", "name"}, {"contact"}}, nil,
			contactOut, contactIn),
		column(FieldCurrentBrand, "Current Brand", 15,
			[]string{"brand"}, [][]string{{"brand"}}, nil,
			brandOut, brandIn),
		column(FieldPriceRange, "Price Range", 15,
			[]string{"price", "quote"}, [][]string{{"price"}, {"quote"}}, nil,
			priceOut, priceIn),
		column(FieldHasSocialMedia, "Runs Social Media", 18,
			[]string{"has social media", "social media"}, [][]string{{"runs", "social"}, {"has", "social"}, {"social", "media"}}, []string{"link", "url", "page"},
			socialOut, socialIn),
		column(FieldSocialMediaLink, "Social Link", 30,
			[]string{"social media link", "social url"}, [][]string{{"social", "link"}, {"social", "url"}, {"social", "page"}, {"link"}}, nil,
			linkOut, linkIn),
		column(FieldCreatedAt, "Created At", 20,
			nil, [][]string{{"created"}}, nil,
			func(_ int, d *model.Doctor) interface{} { return formatTimestamp(d.CreatedAt) }, nil),
		column(FieldUpdatedAt, "Updated At", 20,
			nil, [][]string{{"updated"}}, nil,
			func(_ int, d *model.Doctor) interface{} { return formatTimestamp(d.UpdatedAt) }, nil),
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timestampLayout)
}

// ColumnMap maps a resolved field to its 0-based header position.
type ColumnMap map[Field]int

// ResolveColumns maps header cells to fields. The standard layout is adopted
// wholesale when enough labels sit at their canonical positions, otherwise
// each field is searched for by exact label, then by keyword containment.
// A header cell is claimed by at most one field and the first match wins.
// The second return value reports whether the standard layout was used.
func ResolveColumns(header []string, columns []Column) (ColumnMap, bool) {
	if m, ok := resolveStandard(header, columns); ok {
		return m, true
	}
	return resolveFuzzy(header, columns), false
}

func resolveStandard(header []string, columns []Column) (ColumnMap, bool) {
	threshold := int(math.Ceil(float64(len(columns)) * standardMatchRatio))

	matches := 0
	for i, col := range columns {
		if i < len(header) && strings.TrimSpace(header[i]) == col.Label {
			matches++
		}
	}
	if len(columns) == 0 || matches < threshold {
		return nil, false
	}

	m := make(ColumnMap, len(columns))
	for i, col := range columns {
		if i < len(header) {
			m[col.Field] = i
		}
	}
	return m, true
}

func resolveFuzzy(header []string, columns []Column) ColumnMap {
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = normalizeLabel(h)
	}

	m := make(ColumnMap)
	claimed := make(map[int]bool)

	claim := func(col Column, match func(cell string) bool) {
		if _, done := m[col.Field]; done {
			return
		}
		for i, cell := range cells {
			if cell == "" || claimed[i] {
				continue
			}
			if match(cell) {
				m[col.Field] = i
				claimed[i] = true
				return
			}
		}
	}

	// Pass 1: exact labels and aliases.
	for _, col := range columns {
		labels := append([]string{normalizeLabel(col.Label)}, col.aliases...)
		claim(col, func(cell string) bool {
			for _, l := range labels {
				if cell == l {
					return true
				}
			}
			return false
		})
	}

	// Pass 2: keyword containment.
	for _, col := range columns {
		claim(col, col.matchesKeywords)
	}

	return m
}

func (c Column) matchesKeywords(cell string) bool {
	for _, ex := range c.excludes {
		if strings.Contains(cell, ex) {
			return false
		}
	}
	for _, group := range c.keywords {
		all := len(group) > 0
		for _, term := range group {
			if !strings.Contains(cell, term) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// columnLabel returns a header label for messages, or the field number if
// the field is unknown.
func columnLabel(columns []Column, f Field) string {
	for _, c := range columns {
		if c.Field == f {
			return c.Label
		}
	}
	return "field " + strconv.Itoa(int(f))
}
