// Package extract turns a file's bytes into plain text for the naming
// pipeline. Formats with a text layer (txt, md, pdf, pptx) are read
// directly; image formats and scanned PDFs are returned as raw payloads
// for the OCR model instead. Unsupported formats fail with a typed
// error so the organizer can finish the task without a rename.
package extract
