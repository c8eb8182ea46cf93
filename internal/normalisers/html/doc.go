// Package html provides a Normaliser implementation for HTML documents.
// Boilerplate elements are removed with goquery, the main content is
// converted to Markdown and then flattened to text, so headings survive
// as section markers.
package html
