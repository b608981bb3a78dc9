package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/user/filmsync/internal/model"
	"github.com/user/filmsync/internal/search"
	"github.com/user/filmsync/internal/state"
)

// Cursor 抽取游标：单次运行内消费一次，不可复用
type Cursor interface {
	FetchPage(size int) ([]*model.FilmWork, error)
	Close() error
}

// Extractor 变更抽取器
type Extractor interface {
	OpenChanges(since time.Time) (Cursor, error)
}

// Loader 索引加载器
type Loader interface {
	Load(ctx context.Context, docs []*model.Document) (*search.LoadResult, error)
}

// Checkpoints 水位线读写
type Checkpoints interface {
	LastSynced(stream string) time.Time
	SetLastSynced(stream string, ts time.Time) error
}

// Stats 单次运行的汇总结果
type Stats struct {
	Pages      int       `json:"pages"`
	Extracted  int       `json:"extracted"`
	Loaded     int       `json:"loaded"`
	Failed     int       `json:"failed"`
	Watermark  time.Time `json:"watermark"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// SyncService 同步编排器：抽取 → 转换 → 加载 → 推进水位线
type SyncService struct {
	extractor   Extractor
	loader      Loader
	checkpoints Checkpoints
	pageSize    int
}

// NewSyncService 创建同步编排器
func NewSyncService(extractor Extractor, loader Loader, checkpoints Checkpoints, pageSize int) *SyncService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &SyncService{
		extractor:   extractor,
		loader:      loader,
		checkpoints: checkpoints,
		pageSize:    pageSize,
	}
}

// Run 执行一次完整同步，取空页即结束
// 任一致命错误（抽取失败、传输故障、检查点写入失败）中止运行，
// 水位线停留在最后一次成功落盘的值，下次运行从那里续跑
func (s *SyncService) Run(ctx context.Context) (*Stats, error) {
	since := s.checkpoints.LastSynced(state.StreamFilmWork)
	stats := &Stats{Watermark: since, StartedAt: time.Now()}
	defer func() { stats.FinishedAt = time.Now() }()

	log.Printf("[Sync] 开始同步，水位线 %s", since.Format(time.RFC3339))

	cursor, err := s.extractor.OpenChanges(since)
	if err != nil {
		return stats, fmt.Errorf("打开变更游标失败: %w", err)
	}
	defer cursor.Close()

	// 页内有文档加载失败时冻结水位线：本次运行后续页不再推进，
	// 下次运行从最后一个完整成功的页重新覆盖（upsert 幂等，重复加载无害）
	advance := true
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		page, err := cursor.FetchPage(s.pageSize)
		if err != nil {
			return stats, fmt.Errorf("抽取失败: %w", err)
		}
		if len(page) == 0 {
			break
		}
		stats.Pages++
		stats.Extracted += len(page)

		docs := make([]*model.Document, 0, len(page))
		for _, fw := range page {
			docs = append(docs, BuildDocument(fw))
		}

		result, err := s.loader.Load(ctx, docs)
		if err != nil {
			return stats, fmt.Errorf("加载失败: %w", err)
		}
		stats.Loaded += result.Indexed
		stats.Failed += result.Failed

		if result.Failed > 0 && advance {
			advance = false
			log.Printf("[Sync] 第 %d 页有 %d 篇文档加载失败，本次运行不再推进水位线", stats.Pages, result.Failed)
		}
		if advance {
			// 取页内有效修改时间的最大值，而不是最后一行：
			// 页边界上出现相同时间戳时最后一行不一定是最大值
			watermark := maxModified(page)
			if err := s.checkpoints.SetLastSynced(state.StreamFilmWork, watermark); err != nil {
				return stats, fmt.Errorf("推进水位线失败: %w", err)
			}
			stats.Watermark = watermark
		}
	}

	log.Printf("[Sync] 同步完成：%d 页，抽取 %d，成功 %d，失败 %d，水位线 %s",
		stats.Pages, stats.Extracted, stats.Loaded, stats.Failed, stats.Watermark.Format(time.RFC3339))
	return stats, nil
}

func maxModified(page []*model.FilmWork) time.Time {
	var max time.Time
	for _, fw := range page {
		if fw.Modified.After(max) {
			max = fw.Modified
		}
	}
	return max
}
