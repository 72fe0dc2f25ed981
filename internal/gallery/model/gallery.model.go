package model

// Item is one picture of a gallery category. Paths are relative to the
// static root so the rendering layer can build URLs from them.
type Item struct {
	Img   string `json:"img"`
	Audio string `json:"audio,omitempty"`
	Name  string `json:"name"`
}

type GalleryPage struct {
	Categories       []string `json:"categories"`
	SelectedCategory string   `json:"selected_category,omitempty"`
	Images           []Item   `json:"images"`
}
