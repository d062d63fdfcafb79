package config

const (
	defaultDataDir        = "~/.local/share/medley"
	defaultRawDirName     = "music_raw"
	defaultConvertedName  = "music"
	defaultLogDirName     = "logs"
	defaultReportName     = "index.html"
	defaultEventsName     = "events.csv"
	defaultEntriesName    = "entries.csv"
	defaultInputName      = "input.csv"
	defaultConfirmedName  = "updated_entries.csv"
	defaultSheetKeyName   = "key.txt"
	defaultSheetExportURL = "https://docs.google.com/spreadsheets/d/%s/export?format=csv"
	defaultFFmpegBinary   = "ffmpeg"
	defaultFFprobeBinary  = "ffprobe"
	defaultBitrate        = "256k"
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultFetchTimeout   = 120
	defaultConcurrency    = 1
	defaultMinFreeRatio   = 0.05

	// Acceptance threshold and weights for submission matching. Heuristic
	// values carried from operational tuning; see the matcher package tests
	// for the boundary behaviour they pin down.
	defaultMatchThreshold  = 4
	defaultLastNameExact   = 2
	defaultFirstNameExact  = 2
	defaultFamilySubstring = 4
	defaultFamilyInitial   = 1
	defaultGivenSubstring  = 2
	defaultGivenInitial    = 1
)

func defaultExtensions() []string {
	return []string{".mp3", ".wav", ".m4a", ".aif", ".aiff", ".wma", ".mp2", ".m4v"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Inputs: Inputs{
			SheetExportURL: defaultSheetExportURL,
		},
		Encoder: Encoder{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Bitrate:       defaultBitrate,
			Extensions:    defaultExtensions(),
		},
		Matcher: Matcher{
			Threshold:       defaultMatchThreshold,
			LastNameExact:   defaultLastNameExact,
			FirstNameExact:  defaultFirstNameExact,
			FamilySubstring: defaultFamilySubstring,
			FamilyInitial:   defaultFamilyInitial,
			GivenSubstring:  defaultGivenSubstring,
			GivenInitial:    defaultGivenInitial,
		},
		Fetch: Fetch{
			TimeoutSeconds: defaultFetchTimeout,
			Concurrency:    defaultConcurrency,
			MinFreeRatio:   defaultMinFreeRatio,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
