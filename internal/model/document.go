package model

// Document 写入搜索索引的扁平化文档，_id 即作品 ID
// 索引 mapping 为 strict，字段集合必须与 mapping 一一对应
type Document struct {
	ID          string   `json:"id"`
	IMDbRating  *float64 `json:"imdb_rating"`
	Genre       []string `json:"genre"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Director    string   `json:"director"`
	ActorsNames string   `json:"actors_names"`
	// 编剧保留名字列表；导演按既有索引结构只保留拼接后的名字串
	WritersNames []string `json:"writers_names"`
	Actors       []Person `json:"actors"`
	Writers      []Person `json:"writers"`
}
