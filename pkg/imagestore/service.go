package imagestore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/xhad/tier0/internal/models"
	"github.com/xhad/tier0/internal/types"
)

// findLimit caps one image query; the store's records are small but the
// answer only ever summarizes a page of them.
const findLimit = 20

const imageSynthesisMaxTokens = 300

var (
	hardHatTerms = []string{"hard hat", "helmet", "hat"}
	tabletTerms  = []string{"tablet", "device", "ipad"}
	vestTerms    = []string{"vest", "safety vest"}
)

// Service answers image-domain questions by translating safety-equipment
// keywords into store filters, then summarizing the matches.
type Service struct {
	store    types.ImageStore
	provider types.Provider // nil disables synthesis
	logger   *zap.Logger
}

func NewService(store types.ImageStore, provider types.Provider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, provider: provider, logger: logger}
}

func (s *Service) Name() string { return "search_images" }

// FilterFor maps a question to the store filter its keywords imply.
// "without" negates only the hard-hat condition.
func FilterFor(question string) types.ImageFilter {
	lower := strings.ToLower(question)
	without := strings.Contains(lower, "without")

	var filter types.ImageFilter
	if containsAny(lower, hardHatTerms) {
		v := !without
		filter.HardHat = &v
	}
	if containsAny(lower, tabletTerms) {
		v := true
		filter.Inspection = &v
	}
	if containsAny(lower, vestTerms) {
		v := true
		filter.SafetyVest = &v
	}
	return filter
}

func (s *Service) Query(ctx context.Context, question string) *models.Result {
	lower := strings.ToLower(question)
	without := strings.Contains(lower, "without")

	images, err := s.store.Find(ctx, FilterFor(question), findLimit)
	if err != nil {
		s.logger.Error("image query failed", zap.Error(err))
		return &models.Result{
			Answer:      "Error querying image database: " + err.Error(),
			Type:        models.TypeNoMatch,
			Synthesized: false,
		}
	}
	if len(images) == 0 {
		return &models.Result{
			Answer:      "No matching images found. The image processor may still be analyzing site camera feeds.",
			Type:        models.TypeNoMatch,
			Synthesized: false,
		}
	}

	sites := groupBySite(images)
	siteNames := sortedSiteNames(sites)
	avg := averageCompliance(images)

	if s.provider != nil {
		if answer := s.synthesize(ctx, question, images, sites, siteNames, avg); answer != "" {
			return &models.Result{
				Answer:        answer,
				ImageData:     images,
				Sites:         siteNames,
				Count:         len(images),
				AvgCompliance: roundTenth(avg),
				Type:          models.TypeImageAnalysis,
				Synthesized:   true,
			}
		}
	}

	var answer string
	if without {
		answer = fmt.Sprintf("Found %d images showing workers WITHOUT proper safety equipment. ", len(images))
	} else {
		answer = fmt.Sprintf("Found %d images showing workers with proper safety equipment. ", len(images))
	}
	answer += fmt.Sprintf("Sites: %s. ", strings.Join(siteNames, ", "))
	answer += fmt.Sprintf("Average safety compliance: %.1f%%.", avg)

	return &models.Result{
		Answer:        answer,
		ImageData:     images,
		Sites:         siteNames,
		Count:         len(images),
		AvgCompliance: roundTenth(avg),
		Type:          models.TypeImageAnalysis,
		Synthesized:   false,
	}
}

// synthesize builds a per-site summary context and asks the provider for
// an analysis. Returns "" on any failure so the caller falls back.
func (s *Service) synthesize(ctx context.Context, question string, images []models.ImageInfo,
	sites map[string][]models.ImageInfo, siteNames []string, avg float64) string {

	var sections []string
	for _, site := range siteNames {
		group := sites[site]
		sections = append(sections, fmt.Sprintf(
			"Site: %s\nImages: %d\nAvg Compliance: %.1f%%\nCommon themes: %s",
			site, len(group), averageCompliance(group), strings.Join(commonKeywords(group, 5), ", ")))
	}

	prompt := fmt.Sprintf(`Based on site camera image analysis data, answer this question: %s

Image Analysis Data:
%s

Total images analyzed: %d
Overall average compliance: %.1f%%
Sites covered: %s

Provide a concise summary focusing on safety compliance trends and any concerns.`,
		question, strings.Join(sections, "\n\n"), len(images), avg, strings.Join(siteNames, ", "))

	answer, err := s.provider.Chat(ctx, "", prompt, imageSynthesisMaxTokens)
	if err != nil {
		s.logger.Warn("image synthesis failed, falling back", zap.Error(err))
		return ""
	}
	return answer
}

// groupBySite buckets images by device type, which identifies the site
// camera that captured them.
func groupBySite(images []models.ImageInfo) map[string][]models.ImageInfo {
	sites := make(map[string][]models.ImageInfo)
	for _, img := range images {
		site := img.DeviceType
		if site == "" {
			site = "unknown"
		}
		sites[site] = append(sites[site], img)
	}
	return sites
}

func sortedSiteNames(sites map[string][]models.ImageInfo) []string {
	names := make([]string, 0, len(sites))
	for name := range sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func averageCompliance(images []models.ImageInfo) float64 {
	if len(images) == 0 {
		return 0
	}
	var sum float64
	for _, img := range images {
		sum += img.Compliance.ComplianceScore
	}
	return sum / float64(len(images))
}

// commonKeywords returns the n most frequent keywords across a group,
// frequency descending with alphabetical order breaking ties.
func commonKeywords(images []models.ImageInfo, n int) []string {
	counts := make(map[string]int)
	for _, img := range images {
		for _, kw := range img.Keywords {
			counts[kw]++
		}
	}
	keywords := make([]string, 0, len(counts))
	for kw := range counts {
		keywords = append(keywords, kw)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})
	if len(keywords) > n {
		keywords = keywords[:n]
	}
	return keywords
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
