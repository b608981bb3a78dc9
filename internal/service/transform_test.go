package service

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/filmsync/internal/model"
)

func sampleFilmWork() *model.FilmWork {
	return &model.FilmWork{
		ID:          "fw-1",
		Title:       "Звёздные войны",
		Description: sql.NullString{String: "A long time ago", Valid: true},
		Rating:      sql.NullFloat64{Float64: 8.6, Valid: true},
		Type:        "movie",
		Created:     time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Modified:    time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
		Persons: []model.PersonLink{
			{Role: model.RoleDirector, ID: "p-1", Name: "George Lucas"},
			{Role: model.RoleActor, ID: "p-2", Name: "Mark Hamill"},
			{Role: model.RoleActor, ID: "p-3", Name: "Harrison Ford"},
			{Role: model.RoleWriter, ID: "p-1", Name: "George Lucas"},
		},
		Genres: []string{"Sci-Fi", "Adventure"},
	}
}

func TestBuildDocument_FullMapping(t *testing.T) {
	doc := BuildDocument(sampleFilmWork())

	assert.Equal(t, "fw-1", doc.ID)
	assert.Equal(t, "Звёздные войны", doc.Title)
	assert.Equal(t, "A long time ago", doc.Description)
	require.NotNil(t, doc.IMDbRating)
	assert.InDelta(t, 8.6, *doc.IMDbRating, 1e-9)
	assert.Equal(t, []string{"Sci-Fi", "Adventure"}, doc.Genre)

	assert.Equal(t, "George Lucas", doc.Director)
	assert.Equal(t, "Mark Hamill,Harrison Ford", doc.ActorsNames)
	assert.Equal(t, []string{"George Lucas"}, doc.WritersNames)
	assert.Equal(t, []model.Person{
		{ID: "p-2", Name: "Mark Hamill"},
		{ID: "p-3", Name: "Harrison Ford"},
	}, doc.Actors)
	assert.Equal(t, []model.Person{{ID: "p-1", Name: "George Lucas"}}, doc.Writers)
}

func TestBuildDocument_DirectorKeepsOnlyJoinedNames(t *testing.T) {
	fw := &model.FilmWork{
		ID: "fw-2",
		Persons: []model.PersonLink{
			{Role: model.RoleDirector, ID: "p-1", Name: "导演甲"},
			{Role: model.RoleDirector, ID: "p-2", Name: "导演乙"},
		},
	}
	doc := BuildDocument(fw)

	// 导演只出现在拼接串里，不进入任何子文档列表
	assert.Equal(t, "导演甲,导演乙", doc.Director)
	assert.Empty(t, doc.Actors)
	assert.Empty(t, doc.Writers)
}

func TestBuildDocument_DeduplicatesSameRole(t *testing.T) {
	fw := &model.FilmWork{
		ID: "fw-3",
		Persons: []model.PersonLink{
			{Role: model.RoleActor, ID: "p-1", Name: "某演员"},
			{Role: model.RoleActor, ID: "p-1", Name: "某演员"}, // 连接扇出产生的重复行
		},
	}
	doc := BuildDocument(fw)

	assert.Len(t, doc.Actors, 1)
	assert.Equal(t, "某演员", doc.ActorsNames)
}

func TestBuildDocument_SamePersonTwoRolesKept(t *testing.T) {
	fw := &model.FilmWork{
		ID: "fw-4",
		Persons: []model.PersonLink{
			{Role: model.RoleActor, ID: "p-1", Name: "本人"},
			{Role: model.RoleWriter, ID: "p-1", Name: "本人"},
		},
	}
	doc := BuildDocument(fw)

	// 同一人不同角色是两条独立事实
	assert.Len(t, doc.Actors, 1)
	assert.Len(t, doc.Writers, 1)
}

func TestBuildDocument_DeduplicatesGenres(t *testing.T) {
	fw := &model.FilmWork{ID: "fw-5", Genres: []string{"Drama", "Drama", "Comedy"}}
	doc := BuildDocument(fw)

	assert.Equal(t, []string{"Drama", "Comedy"}, doc.Genre)
}

func TestBuildDocument_EmptyAssociations(t *testing.T) {
	fw := &model.FilmWork{ID: "fw-6", Title: "孤儿作品"}
	doc := BuildDocument(fw)

	assert.Equal(t, "", doc.Director)
	assert.Equal(t, "", doc.ActorsNames)
	assert.NotNil(t, doc.Genre)
	assert.NotNil(t, doc.WritersNames)
	assert.NotNil(t, doc.Actors)
	assert.NotNil(t, doc.Writers)
	assert.Nil(t, doc.IMDbRating)

	// strict mapping 要求空集合序列化为 []，不能缺字段也不能是 null
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"genre":[]`)
	assert.Contains(t, string(data), `"writers_names":[]`)
	assert.Contains(t, string(data), `"actors":[]`)
	assert.Contains(t, string(data), `"writers":[]`)
	assert.Contains(t, string(data), `"imdb_rating":null`)
}

func TestBuildDocument_NullDescription(t *testing.T) {
	fw := &model.FilmWork{ID: "fw-7", Description: sql.NullString{}}
	doc := BuildDocument(fw)

	assert.Equal(t, "", doc.Description)
}
