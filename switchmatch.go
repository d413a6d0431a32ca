package main

import (
	"regexp"
	"strings"
)

// The switch matcher answers one question: did this customer stop buying
// product A because they now buy our near-identical product B? Matching works
// on a "core identity" — the product name with size, unit and qualifier noise
// stripped away. The stripping rules and thresholds below are a tunable
// policy, kept out of the control flow.

var sizeUnitPattern = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:kg|g|gr|ltr|lt|l|ml|cl|oz|lb|lbs|pcs|pc|pk|pks|pack|packs|case|cases|x)\b`)

var qualifierWords = map[string]bool{
	"small":    true,
	"medium":   true,
	"large":    true,
	"premium":  true,
	"classic":  true,
	"original": true,
	"new":      true,
	"standard": true,
	"extra":    true,
}

var nonLetterPattern = regexp.MustCompile(`[^a-z\s]+`)

const (
	switchMinWords     = 2
	switchOverlapRatio = 0.8
)

// coreIdentity reduces a product name to its significant words: lower-cased,
// size/unit tokens and generic qualifiers removed, each word naively
// singularized. Words of one or two letters carry no signal and are dropped.
func coreIdentity(name string) []string {
	text := strings.ToLower(name)
	text = sizeUnitPattern.ReplaceAllString(text, " ")
	text = nonLetterPattern.ReplaceAllString(text, " ")

	var words []string
	for _, word := range strings.Fields(text) {
		if qualifierWords[word] {
			continue
		}
		word = strings.TrimSuffix(word, "s")
		if len(word) <= 2 {
			continue
		}
		words = append(words, word)
	}
	return words
}

// identityOverlap tests whether the shorter identity's words are (almost all)
// contained in the longer one. The measure is deliberately asymmetric: only
// the shorter side must be covered.
func identityOverlap(a, b []string) bool {
	shorter, longer := a, b
	if len(b) < len(a) {
		shorter, longer = b, a
	}
	if len(shorter) < switchMinWords {
		return false
	}
	longerSet := make(map[string]bool, len(longer))
	for _, word := range longer {
		longerSet[word] = true
	}
	matched := 0
	for _, word := range shorter {
		if longerSet[word] {
			matched++
		}
	}
	return float64(matched) >= switchOverlapRatio*float64(len(shorter))
}

// findProductSwitch looks for another product of the same customer that shares
// the lost product's core identity and still has current-period spend. First
// qualifying product (in sorted key order) wins.
func findProductSwitch(products map[string]*productSeries, lostKey string, stats map[string]windowStats) (string, bool) {
	lostIdentity := coreIdentity(lostKey)
	for _, key := range productKeysOf(products) {
		if key == lostKey {
			continue
		}
		if stats[key].CurrentValue <= 0 {
			continue
		}
		if identityOverlap(lostIdentity, coreIdentity(key)) {
			return products[key].DisplayName, true
		}
	}
	return "", false
}
