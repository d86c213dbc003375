package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// ErrNotFound 表示所有级联查询均未命中
var ErrNotFound = errors.New("country not found")

// CountryLanguages 某个国家/地区的官方语言列表
type CountryLanguages struct {
	Name      string   `json:"name"`
	Languages []string `json:"languages"`
}

// Service 封装 REST Countries 公共接口的语言查询，
// 查询顺序为 ISO3 代码 -> 全名精确匹配 -> 名称模糊匹配，全部失败时缓存空结果。
type Service struct {
	baseURL string
	http    *http.Client
	cache   Cache
}

// NewService 创建地理语言查询服务
func NewService(baseURL string, cache Cache, timeout time.Duration) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
	}
}

// Lookup 查询国家的语言列表，iso3 可为空，此时只按名称查询
func (s *Service) Lookup(ctx context.Context, iso3, name string) (CountryLanguages, error) {
	key := strings.ToLower(iso3)
	if key == "" {
		key = strings.ToLower(name)
	}
	if key == "" {
		return CountryLanguages{}, ErrNotFound
	}

	if cached, ok := s.cache.Get(ctx, key); ok {
		return *cached, nil
	}

	if iso3 != "" {
		if result, err := s.fetch(ctx, "/alpha/"+url.PathEscape(iso3)); err == nil {
			s.cache.Set(ctx, key, result)
			return result, nil
		} else {
			log.Printf("[geo] alpha lookup failed for %s: %v", iso3, err)
		}
	}

	if name != "" {
		if result, err := s.fetch(ctx, "/name/"+url.PathEscape(name)+"?fullText=true"); err == nil {
			s.cache.Set(ctx, key, result)
			return result, nil
		}
		if result, err := s.fetch(ctx, "/name/"+url.PathEscape(name)); err == nil {
			s.cache.Set(ctx, key, result)
			return result, nil
		} else {
			log.Printf("[geo] name lookup failed for %s: %v", name, err)
		}
	}

	// 全部失败：缓存空结果，避免重复打点
	empty := CountryLanguages{Name: name, Languages: []string{}}
	s.cache.Set(ctx, key, empty)
	return empty, nil
}

type countryPayload struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	Languages map[string]string `json:"languages"`
}

func (s *Service) fetch(ctx context.Context, path string) (CountryLanguages, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return CountryLanguages{}, err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return CountryLanguages{}, fmt.Errorf("geo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return CountryLanguages{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return CountryLanguages{}, fmt.Errorf("geo upstream returned %d", resp.StatusCode)
	}

	var payload []countryPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return CountryLanguages{}, fmt.Errorf("decode geo response: %w", err)
	}
	if len(payload) == 0 {
		return CountryLanguages{}, ErrNotFound
	}

	first := payload[0]
	languages := make([]string, 0, len(first.Languages))
	for _, lang := range first.Languages {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	return CountryLanguages{Name: first.Name.Common, Languages: languages}, nil
}
