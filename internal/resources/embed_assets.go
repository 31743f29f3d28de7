package resources

import (
	"embed"
	"path"

	"fyne.io/fyne/v2"
)

//go:embed app/*.svg ui/dark/*.svg ui/light/*.svg
var assets embed.FS

// staticResource panics on a missing asset; the set is fixed at build time.
func staticResource(name string) fyne.Resource {
	raw, err := assets.ReadFile(name)
	if err != nil {
		panic("resources: " + err.Error())
	}

	return fyne.NewStaticResource(path.Join("resources", name), raw)
}
