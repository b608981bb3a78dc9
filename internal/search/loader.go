package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/user/filmsync/internal/model"
)

// LoadResult 一次批量加载的逐文档结果统计
type LoadResult struct {
	Indexed int
	Failed  int
}

// BulkLoader 以流式 bulk upsert 将文档写入索引
type BulkLoader struct {
	client *elasticsearch.Client
	index  string
}

// NewBulkLoader 创建批量加载器
func NewBulkLoader(client *elasticsearch.Client, index string) *BulkLoader {
	return &BulkLoader{client: client, index: index}
}

// Load 将一批文档按 _id upsert 到索引
// 单个文档的写入失败只计数不报错，返回 error 仅代表整体传输层故障
func (l *BulkLoader) Load(ctx context.Context, docs []*model.Document) (*LoadResult, error) {
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     l.client,
		Index:      l.index,
		NumWorkers: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 bulk indexer 失败: %w", err)
	}

	var indexed, failed int64
	for _, doc := range docs {
		payload, err := json.Marshal(doc)
		if err != nil {
			// 正常情况下不可达，计入失败以免静默丢文档
			atomic.AddInt64(&failed, 1)
			log.Printf("[Loader] 序列化文档失败 (id=%s): %v", doc.ID, err)
			continue
		}

		item := esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: doc.ID,
			Body:       bytes.NewReader(payload),
			OnSuccess: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem) {
				atomic.AddInt64(&indexed, 1)
			},
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				atomic.AddInt64(&failed, 1)
				if err != nil {
					log.Printf("[Loader] 文档写入失败 (id=%s): %v", item.DocumentID, err)
				} else {
					log.Printf("[Loader] 文档写入被拒绝 (id=%s): %s: %s",
						item.DocumentID, res.Error.Type, res.Error.Reason)
				}
			},
		}
		if err := bi.Add(ctx, item); err != nil {
			bi.Close(ctx)
			return nil, fmt.Errorf("提交文档到 bulk indexer 失败: %w", err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return nil, fmt.Errorf("等待 bulk 刷新失败: %w", err)
	}

	return &LoadResult{
		Indexed: int(atomic.LoadInt64(&indexed)),
		Failed:  int(atomic.LoadInt64(&failed)),
	}, nil
}
