package app

const (
	Name           = "trafficview"
	DisplayName    = "Traffic View"
	SourceURL      = "https://git.skobk.in/skobkin/trafficview"
	ConfigFilename = "config.json"
	LogFilename    = "app.log"
	ProfilesDir    = "profiles"
)
