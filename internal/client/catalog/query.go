package catalog

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
)

type SortKey string

const (
	SortName SortKey = "name"
	SortSize SortKey = "size"
	SortDate SortKey = "date"
)

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortName, SortSize, SortDate:
		return k, nil
	case "":
		return SortName, nil
	default:
		return "", fmt.Errorf("unknown sort key %q (want name, size or date)", s)
	}
}

// Filter returns the records whose file name contains term, ignoring case.
// An empty term matches everything.
func Filter(records []models.FileRecord, term string) []models.FileRecord {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.FileRecord, 0, len(records))
	for _, r := range records {
		if term == "" || strings.Contains(strings.ToLower(r.FileName), term) {
			out = append(out, r)
		}
	}
	return out
}

// Sort returns a sorted copy of records. Ties keep their input order.
func Sort(records []models.FileRecord, key SortKey, desc bool) []models.FileRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b models.FileRecord) int {
		var c int
		switch key {
		case SortSize:
			c = cmpInt(a.Size, b.Size)
		case SortDate:
			c = a.UploadedAt.Compare(b.UploadedAt.Time)
		default:
			c = strings.Compare(strings.ToLower(a.FileName), strings.ToLower(b.FileName))
		}
		if desc {
			return -c
		}
		return c
	})
	return out
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatSize renders n bytes with a 1024 base and up to two decimals,
// e.g. "0 Bytes", "1.5 KB".
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	v, i := float64(n), 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}
