package service

import (
	"strings"

	"github.com/user/filmsync/internal/model"
)

// BuildDocument 将抽取出的作品行转换为索引文档，纯函数无副作用
// 所有派生集合保证非 nil，零关联的作品输出空集合与空字符串
func BuildDocument(fw *model.FilmWork) *model.Document {
	doc := &model.Document{
		ID:           fw.ID,
		Title:        fw.Title,
		Description:  fw.Description.String,
		Genre:        make([]string, 0, len(fw.Genres)),
		WritersNames: []string{},
		Actors:       []model.Person{},
		Writers:      []model.Person{},
	}
	if fw.Rating.Valid {
		rating := fw.Rating.Float64
		doc.IMDbRating = &rating
	}

	// 类型名去重，保留首次出现顺序
	seenGenre := make(map[string]bool, len(fw.Genres))
	for _, g := range fw.Genres {
		if seenGenre[g] {
			continue
		}
		seenGenre[g] = true
		doc.Genre = append(doc.Genre, g)
	}

	// 人员按 (角色, ID) 去重后分组；同一人不同角色是两条独立事实
	var directors, actorNames []string
	seenPerson := make(map[string]bool, len(fw.Persons))
	for _, p := range fw.Persons {
		key := p.Role + "\x00" + p.ID
		if seenPerson[key] {
			continue
		}
		seenPerson[key] = true

		switch p.Role {
		case model.RoleDirector:
			// 导演按既有索引结构只保留名字，不保留 ID 子文档
			directors = append(directors, p.Name)
		case model.RoleActor:
			actorNames = append(actorNames, p.Name)
			doc.Actors = append(doc.Actors, model.Person{ID: p.ID, Name: p.Name})
		case model.RoleWriter:
			doc.WritersNames = append(doc.WritersNames, p.Name)
			doc.Writers = append(doc.Writers, model.Person{ID: p.ID, Name: p.Name})
		}
	}

	doc.Director = strings.Join(directors, ",")
	doc.ActorsNames = strings.Join(actorNames, ",")
	return doc
}
