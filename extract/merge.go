package extract

import (
	"strings"

	"github.com/use-agent/credscan/models"
)

// NormalizeName is the dedup key: trimmed, inner whitespace collapsed.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Merge combines the records of a new extraction pass into the accumulated
// set, keyed by normalized name.
//
// When two records share a key, the one with the higher completeness score
// wins and fully replaces the other; on a tie the incoming record wins,
// since later passes see a more fully rendered page. Replacement is
// whole-record on purpose: splicing fields from different renders of the
// same certificate produces inconsistent data.
//
// Merge is idempotent (re-merging the same incoming set changes nothing)
// and preserves first-seen ordering.
func Merge(existing, incoming []models.CertificateRecord) []models.CertificateRecord {
	merged := make([]models.CertificateRecord, len(existing))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, rec := range merged {
		index[NormalizeName(rec.Name)] = i
	}

	for _, rec := range incoming {
		key := NormalizeName(rec.Name)
		if key == "" {
			continue
		}
		i, seen := index[key]
		if !seen {
			index[key] = len(merged)
			merged = append(merged, rec)
			continue
		}
		if rec.CompletenessScore() >= merged[i].CompletenessScore() {
			merged[i] = rec
		}
	}

	return merged
}

// DropLowConfidence is the post-merge purge: records produced by a broad
// fallback pass that carry no secondary signal at all are false positives
// from the generic selectors and are discarded.
func DropLowConfidence(records []models.CertificateRecord) []models.CertificateRecord {
	kept := records[:0:0]
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.Source), "fallback") && !rec.HasSecondarySignal() {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}
