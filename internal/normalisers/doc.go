// Package normalisers turns non-plain-text files into text the chunker can
// split. Each format lives in its own sub-package; a Registry maps file
// extensions to the normaliser that reads them.
package normalisers
