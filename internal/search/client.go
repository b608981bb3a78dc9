package search

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	elasticsearch "github.com/elastic/go-elasticsearch/v8"
)

// movies 索引的固定结构：strict mapping + 俄英双语分析器
const moviesIndexBody = `{
  "settings": {
    "refresh_interval": "1s",
    "analysis": {
      "filter": {
        "english_stop": {"type": "stop", "stopwords": "_english_"},
        "english_stemmer": {"type": "stemmer", "language": "english"},
        "english_possessive_stemmer": {"type": "stemmer", "language": "possessive_english"},
        "russian_stop": {"type": "stop", "stopwords": "_russian_"},
        "russian_stemmer": {"type": "stemmer", "language": "russian"}
      },
      "analyzer": {
        "ru_en": {
          "tokenizer": "standard",
          "filter": ["lowercase", "english_stop", "english_stemmer",
                     "english_possessive_stemmer", "russian_stop", "russian_stemmer"]
        }
      }
    }
  },
  "mappings": {
    "dynamic": "strict",
    "properties": {
      "id": {"type": "keyword"},
      "imdb_rating": {"type": "float"},
      "genre": {"type": "keyword"},
      "title": {"type": "text", "analyzer": "ru_en", "fields": {"raw": {"type": "keyword"}}},
      "description": {"type": "text", "analyzer": "ru_en"},
      "director": {"type": "text", "analyzer": "ru_en"},
      "actors_names": {"type": "text", "analyzer": "ru_en"},
      "writers_names": {"type": "text", "analyzer": "ru_en"},
      "actors": {
        "type": "nested", "dynamic": "strict",
        "properties": {"id": {"type": "keyword"}, "name": {"type": "text", "analyzer": "ru_en"}}
      },
      "writers": {
        "type": "nested", "dynamic": "strict",
        "properties": {"id": {"type": "keyword"}, "name": {"type": "text", "analyzer": "ru_en"}}
      }
    }
  }
}`

// InitES 初始化 Elasticsearch 客户端，连接建立阶段使用指数退避重试
func InitES(address string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{address},
	})
	if err != nil {
		return nil, fmt.Errorf("创建 Elasticsearch 客户端失败: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 2 * time.Minute
	err = backoff.Retry(func() error {
		res, err := client.Ping()
		if err != nil {
			log.Printf("[ES] ping 失败，稍后重试: %v", err)
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			log.Printf("[ES] ping 返回异常状态，稍后重试: %s", res.Status())
			return fmt.Errorf("elasticsearch ping 状态异常: %s", res.Status())
		}
		return nil
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch 连接失败: %w", err)
	}

	return client, nil
}

// EnsureIndex 幂等创建索引：索引已存在（HTTP 400）视为成功
func EnsureIndex(client *elasticsearch.Client, index string) error {
	res, err := client.Indices.Create(
		index,
		client.Indices.Create.WithBody(strings.NewReader(moviesIndexBody)),
	)
	if err != nil {
		return fmt.Errorf("创建索引请求失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("创建索引 %s 失败: %s", index, res.Status())
	}
	if res.StatusCode == http.StatusBadRequest {
		log.Printf("[ES] 索引 %s 已存在，跳过创建", index)
	}
	return nil
}
