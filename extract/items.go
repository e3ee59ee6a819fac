package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/credscan/models"
)

// LocateItems finds the repeating certificate item nodes under a content
// root, returning the matched set and the strategy tag that produced it.
//
// The cascade holds two parallel selector families because the target site
// has shipped at least two structurally distinct markup generations: the
// newer flat "lockup" layout (stable data attribute, tried first) and the
// legacy nested lists. Each structural selector is validated by requiring
// the first match to carry a minimum of text, so an empty container never
// counts as success. The broad generic selector exists only to survive
// selector churn; its false positives are filtered by ParseItem.
//
// A miss returns an empty selection and the "NoItems" tag — never an error.
func LocateItems(root *goquery.Selection) (*goquery.Selection, string) {
	if items := validItems(root, lockupItemSelector); items != nil {
		return items, "Lockup"
	}
	for _, sel := range legacyItemSelectors {
		if items := validItems(root, sel); items != nil {
			return items, "Legacy:" + sel
		}
	}
	if items := root.Find(genericItemSelector); items.Length() > 0 {
		return items, "GenericFallback"
	}
	return root.Find(genericItemSelector), "NoItems"
}

// validItems returns the matches for sel when the first match passes the
// minimum-text check, nil otherwise.
func validItems(root *goquery.Selection, sel string) *goquery.Selection {
	items := root.Find(sel)
	if items.Length() == 0 {
		return nil
	}
	if len(normalizeSpace(items.First().Text())) <= minItemTextLen {
		return nil
	}
	return items
}

// ParseItems runs the field parser over every located item, dropping nodes
// that fail to yield a record. A malformed single item never aborts the
// remaining items.
func ParseItems(items *goquery.Selection, source string) []models.CertificateRecord {
	var records []models.CertificateRecord
	items.Each(func(_ int, item *goquery.Selection) {
		if rec := ParseItem(item, source); rec != nil {
			records = append(records, *rec)
		}
	})
	return records
}

// ExtractFrom is the composition used by every extraction pass: locate
// items under root, parse them, and report the item-locator strategy tag
// alongside the records. Records produced by the generic fallback get a
// widened source tag so the post-merge purge can treat them with less
// trust.
func ExtractFrom(root *goquery.Selection, source string) ([]models.CertificateRecord, string) {
	items, tag := LocateItems(root)
	if tag == "GenericFallback" {
		source += "WideFallback"
	}
	return ParseItems(items, source), tag
}
