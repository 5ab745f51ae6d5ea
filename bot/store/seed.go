package store

// DefaultMedia is written into an empty media collection on startup.
var DefaultMedia = []MediaEntry{
	{Name: "Studio logo", Description: "Primary logo in PNG and SVG, light and dark variants", AddedBy: "system"},
	{Name: "Brand colors", Description: "Palette with HEX and RGB values", AddedBy: "system"},
	{Name: "Press kit", Description: "Short bio, photos and contacts for press", AddedBy: "system"},
	{Name: "Photo pack", Description: "Selected studio photos for social media posts", AddedBy: "system"},
	{Name: "Post templates", Description: "Story and feed layouts for announcements", AddedBy: "system"},
}
