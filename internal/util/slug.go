// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// cyrillicTranslit maps lowercase Russian letters to their Latin slug form.
var cyrillicTranslit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// stripMarks decomposes accented Latin letters and drops the combining marks,
// so "café" becomes "cafe" instead of "caf".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL slug from a title or name: lowercase, Cyrillic
// transliterated, accents stripped, every other run of characters outside
// [a-z0-9] collapsed to a single '-', with no leading or trailing '-'.
func Slugify(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if lat, ok := cyrillicTranslit[r]; ok {
			b.WriteString(lat)
			continue
		}
		b.WriteRune(r)
	}

	plain, _, err := transform.String(stripMarks, b.String())
	if err != nil {
		plain = b.String()
	}

	var out strings.Builder
	dash := false
	for _, r := range plain {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			out.WriteRune(r)
			dash = false
			continue
		}
		if !dash && out.Len() > 0 {
			out.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(out.String(), "-")
}
