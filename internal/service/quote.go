package service

import (
	"encoding/json"
	"net/http"
	"time"
)

// QuoteService 代理第三方名言接口，上游任何失败都归为 ErrUpstream。
type QuoteService struct {
	client *http.Client
	url    string
}

func NewQuoteService(url string) *QuoteService {
	return &QuoteService{
		client: &http.Client{Timeout: 5 * time.Second},
		url:    url,
	}
}

// QuoteDTO 是对外输出的名言数据。
type QuoteDTO struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

func (s *QuoteService) Get() (*QuoteDTO, error) {
	resp, err := s.client.Get(s.url)
	if err != nil {
		return nil, ErrUpstream
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, ErrUpstream
	}
	var q QuoteDTO
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return nil, ErrUpstream
	}
	return &q, nil
}
