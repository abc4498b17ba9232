// Package subtitles produces SRT files from subtitle tracks of a source
// file and cleans them up.
//
// Text tracks are copied to SRT with ffmpeg; bitmap tracks (PGS, VobSub)
// are run through PgsToSrt, which OCRs them with Tesseract. Both commands go
// through an injectable runner so tests never execute external binaries.
// English OCR output can be repaired in place with FixEnglishFile.
package subtitles
