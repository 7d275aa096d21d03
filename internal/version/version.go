package version

// Version is the current kaiwa version. Overridden at release time with:
//
//	go build -ldflags="-X 'github.com/kaiwa-dev/kaiwa/internal/version.Version=v1.0.0'"
var Version = "dev"
