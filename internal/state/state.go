package state

import (
	"fmt"
	"time"
)

// StreamFilmWork 影视作品同步流的检查点键
const StreamFilmWork = "filmwork"

// DefaultWatermark 水位线初始下限：首次运行从该时间点全量同步
var DefaultWatermark = time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)

// State 按流维护"最后已同步时间"的水位线管理器
// 构造时加载一次，之后读走内存缓存，写操作同步落盘
type State struct {
	storage Storage
	cache   map[string]string
}

// NewState 创建水位线管理器
func NewState(storage Storage) (*State, error) {
	cache, err := storage.Retrieve()
	if err != nil {
		return nil, err
	}
	return &State{storage: storage, cache: cache}, nil
}

// LastSynced 返回指定流的水位线；未设置或无法解析时返回默认下限
func (s *State) LastSynced(stream string) time.Time {
	raw, ok := s.cache[stream]
	if !ok {
		return DefaultWatermark
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return DefaultWatermark
	}
	return ts
}

// SetLastSynced 推进水位线并同步持久化；持久化失败时不更新内存值
func (s *State) SetLastSynced(stream string, ts time.Time) error {
	next := map[string]string{}
	for k, v := range s.cache {
		next[k] = v
	}
	next[stream] = ts.Format(time.RFC3339Nano)

	if err := s.storage.Save(next); err != nil {
		return fmt.Errorf("持久化水位线失败: %w", err)
	}
	s.cache = next
	return nil
}
