package resources

import (
	"embed"
	"path"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

//go:embed icons
var icons embed.FS

type UIIcon string

const (
	UIIconConnected    UIIcon = "connected"
	UIIconDisconnected UIIcon = "disconnected"

	iconApp  = "app"
	iconTray = "tray"
)

func variantDir(variant fyne.ThemeVariant) string {
	if variant == theme.VariantLight {
		return "light"
	}

	return "dark"
}

// load reads an embedded SVG; a missing icon yields nil.
func load(name string, variant fyne.ThemeVariant) fyne.Resource {
	file := path.Join("icons", variantDir(variant), name+".svg")
	raw, err := icons.ReadFile(file)
	if err != nil {
		return nil
	}

	return fyne.NewStaticResource(path.Join("resources", file), raw)
}

func UIIconResource(icon UIIcon, variant fyne.ThemeVariant) fyne.Resource {
	return load(string(icon), variant)
}

func AppIconResource(variant fyne.ThemeVariant) fyne.Resource {
	return load(iconApp, variant)
}

func TrayIconResource(variant fyne.ThemeVariant) fyne.Resource {
	return load(iconTray, variant)
}
