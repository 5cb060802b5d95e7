// Package citation validates bibliographic records and renders them as
// formatted reference strings in APA, MLA, Chicago or a plain fallback style.
//
// The engine is stateless: every call reads only its arguments, except the
// Chicago template which embeds the name of the current month (an injectable
// clock keeps tests deterministic). Formatting never fails on missing fields;
// it substitutes empty strings and lets Validate report the defects
// separately, so callers can always show a best-effort reference alongside
// its issue list.
package citation
