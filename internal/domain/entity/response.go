package entity

type ItemKind string

const (
	ItemText   ItemKind = "text"
	ItemBinary ItemKind = "binary"
)

const MediaTypePNG = "image/png"

// ResponseItem is one unit of tool output. Text is set for ItemText, Data and MediaType for ItemBinary.
type ResponseItem struct {
	Kind      ItemKind
	Text      string
	Data      []byte
	MediaType string
}

func TextItem(text string) ResponseItem {
	return ResponseItem{Kind: ItemText, Text: text}
}

func BinaryItem(data []byte, mediaType string) ResponseItem {
	return ResponseItem{Kind: ItemBinary, Data: data, MediaType: mediaType}
}
