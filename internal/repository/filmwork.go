package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/user/filmsync/internal/model"
	"gorm.io/gorm"
)

type FilmWorkRepository struct {
	db *gorm.DB
}

func NewFilmWorkRepository(db *gorm.DB) *FilmWorkRepository {
	return &FilmWorkRepository{db: db}
}

// 增量抽取查询：作品本身、关联人员或关联类型任一 modified 达到水位线即命中，
// 按有效修改时间（三者最大值）升序返回，水位线使用 >= 以便中断后重跑时
// 不漏掉恰好落在水位线上的作品（加载幂等，重复处理无害）
const changedFilmWorksSQL = `
	SELECT fw.id, fw.title, fw.description, fw.rating, fw.type, fw.created,
	       GREATEST(fw.modified, MAX(p.modified), MAX(g.modified)) AS modified,
	       COALESCE(json_agg(DISTINCT jsonb_build_object(
	           'person_role', pfw.role, 'person_id', p.id, 'person_name', p.full_name
	       )) FILTER (WHERE p.id IS NOT NULL), '[]') AS persons,
	       COALESCE(array_agg(DISTINCT g.name) FILTER (WHERE g.name IS NOT NULL), '{}') AS genres
	FROM content.film_work fw
	LEFT JOIN content.person_film_work pfw ON pfw.film_work_id = fw.id
	LEFT JOIN content.person p ON p.id = pfw.person_id
	LEFT JOIN content.genre_film_work gfw ON gfw.film_work_id = fw.id
	LEFT JOIN content.genre g ON g.id = gfw.genre_id
	WHERE fw.modified >= $1 OR p.modified >= $1 OR g.modified >= $1
	GROUP BY fw.id
	ORDER BY modified ASC
`

// FilmWorkCursor 单次运行内只进不退的抽取游标，用完必须 Close
type FilmWorkCursor struct {
	rows *sql.Rows
}

// OpenChanges 打开自 since 起发生变更的作品游标
func (r *FilmWorkRepository) OpenChanges(since time.Time) (*FilmWorkCursor, error) {
	rows, err := r.db.Raw(changedFilmWorksSQL, since).Rows()
	if err != nil {
		return nil, fmt.Errorf("执行增量抽取查询失败: %w", err)
	}
	return &FilmWorkCursor{rows: rows}, nil
}

// FetchPage 取下一页，最多 size 条；返回空切片表示已取完
func (c *FilmWorkCursor) FetchPage(size int) ([]*model.FilmWork, error) {
	page := make([]*model.FilmWork, 0, size)
	for len(page) < size && c.rows.Next() {
		fw, err := scanFilmWork(c.rows)
		if err != nil {
			return nil, err
		}
		page = append(page, fw)
	}
	if err := c.rows.Err(); err != nil {
		return nil, fmt.Errorf("游标遍历失败: %w", err)
	}
	return page, nil
}

// Close 释放游标及其占用的连接
func (c *FilmWorkCursor) Close() error {
	return c.rows.Close()
}

func scanFilmWork(rows *sql.Rows) (*model.FilmWork, error) {
	var fw model.FilmWork
	var personsJSON []byte

	err := rows.Scan(
		&fw.ID, &fw.Title, &fw.Description, &fw.Rating, &fw.Type,
		&fw.Created, &fw.Modified,
		&personsJSON, pq.Array(&fw.Genres),
	)
	if err != nil {
		return nil, fmt.Errorf("扫描作品行失败: %w", err)
	}

	// 解析 JSON 聚合列
	if err := json.Unmarshal(personsJSON, &fw.Persons); err != nil {
		return nil, fmt.Errorf("解析人员关联失败 (作品 %s): %w", fw.ID, err)
	}
	return &fw, nil
}
