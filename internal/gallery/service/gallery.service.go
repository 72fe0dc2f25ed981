package service

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"carenest/internal/gallery/model"
	"carenest/pkg/logger"

	"github.com/fsnotify/fsnotify"
)

// StaticPrefix is the directory name of the gallery under the static root.
const StaticPrefix = "customer_images"

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

// audioExtsPreference is tried in order; web-friendly formats come first.
var audioExtsPreference = []string{".mp3", ".m4a", ".ogg", ".wav", ".mp4", ".mov"}

// GalleryService lists image categories under Root. While Watch is running
// listings are cached until the directory tree changes; otherwise every call
// reads the disk.
type GalleryService struct {
	Root string

	mu       sync.RWMutex
	watching bool
	// gen counts invalidations so a scan that raced one is not cached.
	gen        uint64
	categories []string
	images     map[string][]model.Item
}

func NewGalleryService(root string) *GalleryService {
	return &GalleryService{Root: root, images: make(map[string][]model.Item)}
}

// Categories returns the subdirectories of Root, sorted case-insensitively.
func (s *GalleryService) Categories() []string {
	s.mu.RLock()
	cached, gen := s.categories, s.gen
	s.mu.RUnlock()
	if cached != nil {
		return slices.Clone(cached)
	}

	cats := s.scanCategories()
	s.storeCategories(gen, cats)
	return slices.Clone(cats)
}

// storeCategories caches cats unless the cache was invalidated after gen
// was read.
func (s *GalleryService) storeCategories(gen uint64, cats []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.watching || s.gen != gen {
		return false
	}
	s.categories = cats
	return true
}

func (s *GalleryService) HasCategory(category string) bool {
	return slices.Contains(s.Categories(), category)
}

// Images lists the pictures of category, each with its best audio companion.
// Unknown categories yield an empty list.
func (s *GalleryService) Images(category string) []model.Item {
	if !s.HasCategory(category) {
		return []model.Item{}
	}

	s.mu.RLock()
	cached, ok := s.images[category]
	gen := s.gen
	s.mu.RUnlock()
	if ok {
		return slices.Clone(cached)
	}

	items := s.scanImages(category)
	s.storeImages(gen, category, items)
	return slices.Clone(items)
}

func (s *GalleryService) storeImages(gen uint64, category string, items []model.Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.watching || s.gen != gen {
		return false
	}
	s.images[category] = items
	return true
}

// Page resolves the selected category (or the first one) into a page model.
func (s *GalleryService) Page(selected string) model.GalleryPage {
	cats := s.Categories()
	if selected == "" && len(cats) > 0 {
		selected = cats[0]
	}
	page := model.GalleryPage{Categories: cats, SelectedCategory: selected, Images: []model.Item{}}
	if selected != "" {
		page.Images = s.Images(selected)
	}
	return page
}

func (s *GalleryService) Invalidate() {
	s.mu.Lock()
	s.gen++
	s.categories = nil
	s.images = make(map[string][]model.Item)
	s.mu.Unlock()
}

// Watch enables the listing cache and invalidates it whenever something
// under Root changes. It blocks until ctx is done. When the root cannot be
// watched the service keeps reading from disk and Watch returns nil.
func (s *GalleryService) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Sugar.Warnf("Gallery watcher unavailable, caching disabled: %v", err)
		return nil
	}
	defer watcher.Close()

	if err := watcher.Add(s.Root); err != nil {
		logger.Sugar.Warnf("Cannot watch gallery root %s, caching disabled: %v", s.Root, err)
		return nil
	}
	for _, cat := range s.scanCategories() {
		if err := watcher.Add(filepath.Join(s.Root, cat)); err != nil {
			logger.Sugar.Warnf("Cannot watch gallery category %s: %v", cat, err)
		}
	}
	logger.Sugar.Infof("Watching gallery root %s", s.Root)

	s.mu.Lock()
	s.watching = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.watching = false
		s.mu.Unlock()
		s.Invalidate()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			logger.Sugar.Debugf("Gallery changed (%s), invalidating cache", event)
			s.Invalidate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Sugar.Warnf("Gallery watcher error: %v", err)
			s.Invalidate()
		}
	}
}

func (s *GalleryService) scanCategories() []string {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return []string{}
	}
	cats := []string{}
	for _, e := range entries {
		if e.IsDir() {
			cats = append(cats, e.Name())
		}
	}
	slices.SortFunc(cats, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return cats
}

func (s *GalleryService) scanImages(category string) []model.Item {
	dir := filepath.Join(s.Root, category)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []model.Item{}
	}

	items := []model.Item{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if !imageExts[strings.ToLower(ext)] {
			continue
		}
		base := strings.TrimSuffix(name, ext)
		item := model.Item{Img: path.Join(StaticPrefix, category, name), Name: name}
		for _, aext := range audioExtsPreference {
			info, err := os.Stat(filepath.Join(dir, base+aext))
			if err == nil && info.Mode().IsRegular() {
				item.Audio = path.Join(StaticPrefix, category, base+aext)
				break
			}
		}
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b model.Item) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return items
}
