package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"adgate-server/internal/domain"
)

const dailyLinkDocID = "link:daily"

type LinkRepository interface {
	Get() (*domain.DailyLink, error)
	Set(link *domain.DailyLink) error
}

type linkRepository struct {
	baseURL string
	client  *http.Client
}

func NewLinkRepository(baseURL string) LinkRepository {
	return &linkRepository{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *linkRepository) Get() (*domain.DailyLink, error) {
	url := fmt.Sprintf("%s/%s", r.baseURL, dailyLinkDocID)

	resp, err := r.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily link: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch daily link: status %d", resp.StatusCode)
	}

	var link domain.DailyLink
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return nil, fmt.Errorf("failed to decode daily link: %w", err)
	}

	return &link, nil
}

func (r *linkRepository) Set(link *domain.DailyLink) error {
	url := fmt.Sprintf("%s/%s", r.baseURL, dailyLinkDocID)

	doc := map[string]interface{}{
		"_id":          dailyLinkDocID,
		"current_link": link.CurrentLink,
		"updated_at":   link.UpdatedAt,
	}

	resp, err := r.client.Get(url)
	if err == nil {
		if resp.StatusCode == http.StatusOK {
			var existing map[string]interface{}
			if err := json.NewDecoder(resp.Body).Decode(&existing); err == nil {
				doc["_rev"] = existing["_rev"]
			}
		}
		resp.Body.Close()
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode daily link: %w", err)
	}

	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	putResp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to store daily link: %w", err)
	}
	defer putResp.Body.Close()

	if putResp.StatusCode != http.StatusCreated && putResp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to store daily link: status %d", putResp.StatusCode)
	}

	return nil
}
