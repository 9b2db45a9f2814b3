// Package logging builds the slog.Logger shared by the command line tool
// and the terminal UI.
//
// Console output uses one line per record:
//
//	[INFO] 2024-05-01 12:00:00 - Download completed file=2024-05-01_Pilot.mp3
//
// Level labels are coloured with lipgloss when the destination is a
// terminal. When Options.LogFile is set, records are also written to that
// file as JSON through a slog-multi fanout.
package logging
