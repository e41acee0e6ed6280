// Package rewrite replaces dots with underscores in archive entry names and in
// the id and href attribute values embedded in entry content.
//
// Content is treated as opaque bytes: the two attribute patterns are matched
// textually, never parsed as markup, and every byte outside a matched value is
// passed through untouched. All functions are total; malformed input degrades
// to partial or no rewriting rather than an error.
//
// Href targets keep an allow-listed extension (see ExtensionSet) while every
// other dot in the target and its fragment becomes an underscore. Directory
// segments follow the selected DirectoryMode.
package rewrite
