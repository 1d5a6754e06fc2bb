package service

import (
	"encoding/json"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"learn2b.app/ieltsbackend/internal/model"
)

const (
	indexCourses = "courses"
	indexPosts   = "posts"
)

// SearchService mirrors courses and community posts into Meilisearch.
// Indexing is best-effort and nil-safe: a missing Meilisearch instance
// disables search without affecting the primary writes.
type SearchService interface {
	IndexCourse(course *model.Course) error
	IndexPost(post *model.Post) error
	DeletePost(id string) error
	SearchPosts(query string, limit int64) ([]map[string]interface{}, error)
	SearchCourses(query string, limit int64) ([]map[string]interface{}, error)
}

type meiliCourseDoc struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
	SortOrder   int    `json:"sort_order"`
	CreatedAt   int64  `json:"created_at"`
}

type meiliPostDoc struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Category  string `json:"category"`
	CreatedAt int64  `json:"created_at"`
}

type searchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	if client != nil {
		s.initIndexes()
	}
	return s
}

func (s *searchService) initIndexes() {
	courseSortable := []string{"sort_order", "created_at"}
	if _, err := s.client.Index(indexCourses).UpdateSortableAttributes(&courseSortable); err != nil {
		log.Printf("search: failed to update courses sortable attributes: %v", err)
	}

	courseFilterable := []string{"category", "difficulty"}
	courseFilterableAny := make([]any, len(courseFilterable))
	for i, v := range courseFilterable {
		courseFilterableAny[i] = v
	}
	if _, err := s.client.Index(indexCourses).UpdateFilterableAttributes(&courseFilterableAny); err != nil {
		log.Printf("search: failed to update courses filterable attributes: %v", err)
	}

	postSortable := []string{"created_at"}
	if _, err := s.client.Index(indexPosts).UpdateSortableAttributes(&postSortable); err != nil {
		log.Printf("search: failed to update posts sortable attributes: %v", err)
	}

	postFilterable := []string{"category"}
	postFilterableAny := make([]any, len(postFilterable))
	for i, v := range postFilterable {
		postFilterableAny[i] = v
	}
	if _, err := s.client.Index(indexPosts).UpdateFilterableAttributes(&postFilterableAny); err != nil {
		log.Printf("search: failed to update posts filterable attributes: %v", err)
	}
}

func (s *searchService) IndexCourse(course *model.Course) error {
	if s.client == nil {
		return nil
	}
	if !course.IsPublished {
		_, err := s.client.Index(indexCourses).DeleteDocument(course.ID.String())
		return err
	}

	doc := meiliCourseDoc{
		ID:          course.ID.String(),
		Title:       course.Title,
		Slug:        course.Slug,
		Description: s.cleanContentForIndex(course.Description),
		Category:    course.Category,
		Difficulty:  course.Difficulty,
		SortOrder:   course.SortOrder,
		CreatedAt:   course.CreatedAt.Unix(),
	}

	if _, err := s.client.Index(indexCourses).AddDocuments([]meiliCourseDoc{doc}, strPtr("id")); err != nil {
		return fmt.Errorf("failed to index course %s: %w", course.ID, err)
	}
	return nil
}

func (s *searchService) IndexPost(post *model.Post) error {
	if s.client == nil {
		return nil
	}
	if post.IsHidden {
		_, err := s.client.Index(indexPosts).DeleteDocument(post.ID.String())
		return err
	}

	doc := meiliPostDoc{
		ID:        post.ID.String(),
		Title:     post.Title,
		Content:   s.cleanContentForIndex(post.Content),
		Category:  post.Category,
		CreatedAt: post.CreatedAt.Unix(),
	}

	if _, err := s.client.Index(indexPosts).AddDocuments([]meiliPostDoc{doc}, strPtr("id")); err != nil {
		return fmt.Errorf("failed to index post %s: %w", post.ID, err)
	}
	return nil
}

func (s *searchService) DeletePost(id string) error {
	if s.client == nil {
		return nil
	}
	_, err := s.client.Index(indexPosts).DeleteDocument(id)
	return err
}

func (s *searchService) SearchPosts(query string, limit int64) ([]map[string]interface{}, error) {
	return s.search(indexPosts, query, limit)
}

func (s *searchService) SearchCourses(query string, limit int64) ([]map[string]interface{}, error) {
	return s.search(indexCourses, query, limit)
}

func (s *searchService) search(index, query string, limit int64) ([]map[string]interface{}, error) {
	if s.client == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	resp, err := s.client.Index(index).Search(query, &meilisearch.SearchRequest{
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(resp.Hits)
	if err != nil {
		return nil, err
	}
	var hits []map[string]interface{}
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, err
	}
	return hits, nil
}

// cleanContentForIndex strips markup so the index stores searchable
// plain text.
func (s *searchService) cleanContentForIndex(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)

	return strings.Join(strings.Fields(cleanText), " ")
}

func strPtr(s string) *string {
	return &s
}
