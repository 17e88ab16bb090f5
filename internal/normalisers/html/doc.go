// Package html extracts readable text from HTML pages such as exported wiki
// pages. Scripts, styles and markup are dropped and entities decoded.
package html
