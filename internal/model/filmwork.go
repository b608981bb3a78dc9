package model

import (
	"database/sql"
	"time"
)

// 人员角色（关系库中的闭集，新增角色需要重新发布）
const (
	RoleDirector = "director"
	RoleActor    = "actor"
	RoleWriter   = "writer"
)

// FilmWork 从关系库抽取出的一条影视作品聚合记录
// 每行已按作品分组，携带其全部人员关联与类型名称
type FilmWork struct {
	ID          string
	Title       string
	Description sql.NullString
	Rating      sql.NullFloat64
	Type        string
	Created     time.Time
	// Modified 有效修改时间：作品本身、关联人员、关联类型三者 modified 的最大值
	Modified time.Time
	Persons  []PersonLink
	Genres   []string
}

// PersonLink 作品与人员的一条关联（同一人员可按不同角色多次出现）
type PersonLink struct {
	Role string `json:"person_role"`
	ID   string `json:"person_id"`
	Name string `json:"person_name"`
}

// Person 人员子文档（演员/编剧）
type Person struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
