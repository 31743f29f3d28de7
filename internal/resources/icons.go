package resources

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

type UIIcon string

const (
	UIIconConnected    UIIcon = "connected"
	UIIconDisconnected UIIcon = "disconnected"
)

var (
	uiDarkIconResources  = variantIcons("dark")
	uiLightIconResources = variantIcons("light")
	appIconResource      = staticResource("app/icon.svg")
)

func variantIcons(variant string) map[UIIcon]fyne.Resource {
	icons := make(map[UIIcon]fyne.Resource, 2)
	for _, icon := range []UIIcon{UIIconConnected, UIIconDisconnected} {
		icons[icon] = staticResource("ui/" + variant + "/" + string(icon) + ".svg")
	}

	return icons
}

// AppIconResource is used for the window, the tray and notifications.
func AppIconResource() fyne.Resource {
	return appIconResource
}

func UIIconResource(icon UIIcon, variant fyne.ThemeVariant) fyne.Resource {
	if variant == theme.VariantLight {
		if res, ok := uiLightIconResources[icon]; ok {
			return res
		}
	}
	if res, ok := uiDarkIconResources[icon]; ok {
		return res
	}
	return nil
}
