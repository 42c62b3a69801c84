package entity

type PageInfo struct {
	URL   string
	Title string
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

func (s *Screenshot) MediaType() string {
	return "image/" + s.Format
}
