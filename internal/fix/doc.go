// Package fix rewrites source files in place.
//
// Two mechanisms live here: Locate/Apply map an XML tree node back to its raw
// bytes so a single element can be replaced without reformatting the file,
// and ApplyEdits applies guarded byte edits for text formats. After any write
// the caller owns re-parsing; nothing in this package caches positions.
package fix
