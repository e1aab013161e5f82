// Package namer turns extracted file content into a sanitized filename
// candidate. Text goes to the naming model with a fixed instruction
// template; images go to the same model's vision input; scanned
// documents are first read by the OCR model and the recovered text is
// then named like any other text. Raw model output is never trusted:
// every candidate is normalized, stripped to lowercase alphanumerics
// and underscores, and length-capped before anything touches the disk.
package namer
