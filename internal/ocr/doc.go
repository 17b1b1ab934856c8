// Package ocr provides a text-based similarity backend using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2) to read the
// text of a before/after crop pair and score how much of it survived. It is
// an offline stand-in for the embedding service when a UI regression is
// mostly about copy changes.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// The default language is English ("eng").
package ocr
