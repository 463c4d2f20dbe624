// Package normalisers holds the parsers that turn source reports into
// section records for the exemplar collection.
package normalisers
