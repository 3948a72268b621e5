package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/classconnect-api/internal/models"
)

// Accepted spellings per canonical field. Clients send the short legacy names
// (classId), the suffixed long names of the hosted backend (Class_c) or snake
// case column names (class_id).
var (
	nameAliases        = []string{"name", "Name", "Name_c"}
	descriptionAliases = []string{"description", "Description", "Description_c"}
	classCodeAliases   = []string{"classCode", "class_code", "ClassCode", "Class_Code_c"}
	teacherIDAliases   = []string{"teacherId", "teacher_id", "TeacherId", "Teacher_Id_c"}
	titleAliases       = []string{"title", "Title", "Title_c"}
	dueDateAliases     = []string{"dueDate", "due_date", "DueDate", "Due_Date_c"}
	pointsAliases      = []string{"points", "Points", "Points_c"}
	classIDAliases     = []string{"classId", "class_id", "ClassId", "Class_c", "Class_Id_c"}
	attachmentAliases  = []string{"attachments", "Attachments", "Attachments_c"}
	contentAliases     = []string{"content", "Content", "Content_c"}
)

var canonicalAliases = map[string][]string{
	"name":        nameAliases,
	"description": descriptionAliases,
	"classCode":   classCodeAliases,
	"teacherId":   teacherIDAliases,
	"title":       titleAliases,
	"dueDate":     dueDateAliases,
	"points":      pointsAliases,
	"classId":     classIDAliases,
	"attachments": attachmentAliases,
	"content":     contentAliases,
}

// FieldValue returns the raw value of a canonical field under whichever
// accepted spelling the caller used.
func FieldValue(fields models.Fields, canonical string) (interface{}, bool) {
	aliases, ok := canonicalAliases[canonical]
	if !ok {
		aliases = []string{canonical}
	}
	return lookup(fields, aliases)
}

// FieldSupplied reports whether fields carries a canonical field under any
// accepted spelling.
func FieldSupplied(fields models.Fields, canonical string) bool {
	_, found := FieldValue(fields, canonical)
	return found
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

// fieldErrors collects coercion problems so every bad field is reported at once.
type fieldErrors []string

func (e *fieldErrors) add(field string, err error) {
	*e = append(*e, fmt.Sprintf("%s: %v", field, err))
}

func lookup(fields models.Fields, aliases []string) (interface{}, bool) {
	for _, alias := range aliases {
		if v, ok := fields[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

func normalizeClass(fields models.Fields) (models.ClassInput, fieldErrors) {
	var (
		in   models.ClassInput
		errs fieldErrors
	)
	in.Name = textField(fields, nameAliases)
	in.Description = textField(fields, descriptionAliases)
	if code := textField(fields, classCodeAliases); code != nil {
		upper := strings.ToUpper(strings.TrimSpace(*code))
		in.ClassCode = &upper
	}
	if raw, ok := lookup(fields, teacherIDAliases); ok && raw != nil {
		id, err := coerceID(raw)
		if err != nil {
			errs.add("teacher_id", err)
		} else {
			in.TeacherID = &id
		}
	}
	return in, errs
}

func normalizeAssignment(fields models.Fields) (models.AssignmentInput, fieldErrors) {
	var (
		in   models.AssignmentInput
		errs fieldErrors
	)
	in.Title = textField(fields, titleAliases)
	in.Description = textField(fields, descriptionAliases)
	if raw, ok := lookup(fields, dueDateAliases); ok && raw != nil {
		due, err := coerceTime(raw)
		if err != nil {
			errs.add("due_date", err)
		} else if due != nil {
			in.DueDate = due
		}
	}
	if raw, ok := lookup(fields, pointsAliases); ok && raw != nil {
		points, err := coerceInt(raw)
		if err != nil {
			errs.add("points", err)
		} else if points != nil {
			p := int(*points)
			in.Points = &p
		}
	}
	if raw, ok := lookup(fields, classIDAliases); ok && raw != nil {
		id, err := coerceID(raw)
		if err != nil {
			errs.add("class_id", err)
		} else {
			in.ClassID = &id
		}
	}
	if raw, ok := lookup(fields, attachmentAliases); ok {
		list, err := coerceAttachments(raw)
		if err != nil {
			errs.add("attachments", err)
		} else {
			in.Attachments = &list
		}
	}
	return in, errs
}

// normalizeAnnouncement maps an absent-or-empty class to zero, meaning a
// general announcement.
func normalizeAnnouncement(fields models.Fields) (models.AnnouncementInput, fieldErrors) {
	var (
		in   models.AnnouncementInput
		errs fieldErrors
	)
	in.Title = textField(fields, titleAliases)
	in.Content = textField(fields, contentAliases)
	if raw, ok := lookup(fields, classIDAliases); ok {
		if raw == nil {
			var general int64
			in.ClassID = &general
		} else {
			id, err := coerceID(raw)
			if err != nil {
				errs.add("class_id", err)
			} else {
				in.ClassID = &id
			}
		}
	}
	return in, errs
}

func textField(fields models.Fields, aliases []string) *string {
	raw, ok := lookup(fields, aliases)
	if !ok || raw == nil {
		return nil
	}
	var text string
	switch v := raw.(type) {
	case string:
		text = v
	case json.Number:
		text = v.String()
	case float64:
		text = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		text = fmt.Sprint(v)
	}
	return &text
}

// coerceID accepts numbers, numeric strings and lookup objects such as
// {"Id": 3}. An empty string yields zero.
func coerceID(raw interface{}) (int64, error) {
	if obj, ok := raw.(map[string]interface{}); ok {
		for _, key := range []string{"Id", "id", "ID"} {
			if v, ok := obj[key]; ok {
				return coerceID(v)
			}
		}
		return 0, fmt.Errorf("lookup object has no Id")
	}
	n, err := coerceInt(raw)
	if err != nil {
		return 0, err
	}
	if n == nil {
		return 0, nil
	}
	if *n < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return *n, nil
}

// coerceInt returns nil for blank text.
func coerceInt(raw interface{}) (*int64, error) {
	var n int64
	switch v := raw.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float32:
		return fromFloat(float64(v))
	case float64:
		return fromFloat(v)
	case json.Number:
		return coerceInt(v.String())
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(trimmed, 64)
			if ferr != nil {
				return nil, fmt.Errorf("%q is not a number", v)
			}
			return fromFloat(f)
		}
		n = parsed
	default:
		return nil, fmt.Errorf("unsupported number type %T", raw)
	}
	return &n, nil
}

func fromFloat(f float64) (*int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("%v is not a whole number", f)
	}
	n := int64(f)
	return &n, nil
}

// coerceTime returns nil for blank text.
func coerceTime(raw interface{}) (*time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		t := v.UTC()
		return &t, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, trimmed); err == nil {
				t = t.UTC()
				return &t, nil
			}
		}
		return nil, fmt.Errorf("%q is not a recognised date", v)
	default:
		return nil, fmt.Errorf("unsupported date type %T", raw)
	}
}

func coerceAttachments(raw interface{}) (models.AttachmentList, error) {
	switch v := raw.(type) {
	case nil:
		return models.AttachmentList{}, nil
	case string:
		return models.ParseAttachments(v), nil
	case []string:
		return models.ParseAttachments(strings.Join(v, ",")), nil
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("attachment entries must be text")
			}
			parts = append(parts, s)
		}
		return models.ParseAttachments(strings.Join(parts, ",")), nil
	default:
		return nil, fmt.Errorf("unsupported attachments type %T", raw)
	}
}
