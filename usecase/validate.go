package usecase

import (
	"fmt"

	"social-hub/domain/model"
)

// contentRules captures the per-platform constraints enforced before a job is
// ever enqueued. Zero means unlimited; checkExtra runs after the generic
// checks for anything the table can't express.
type contentRules struct {
	maxTextLen    int
	maxTitleLen   int
	maxImages     int
	exactVideos   int
	allowVideo    bool
	requireMedia  bool
	requireTitle  bool
	checkExtra    func(content *model.PostContent, result *model.ValidationResult)
}

var platformRules = map[model.Platform]contentRules{
	model.PlatformTwitter: {
		maxTextLen: 280,
		maxImages:  4,
		allowVideo: true,
	},
	model.PlatformLinkedIn: {
		maxTextLen: 3000,
		maxImages:  9,
		allowVideo: true,
	},
	model.PlatformTikTok: {
		maxTextLen:   2200,
		exactVideos:  1,
		allowVideo:   true,
		requireMedia: true,
	},
	model.PlatformPinterest: {
		maxTextLen:   500,
		maxImages:    1,
		requireMedia: true,
		checkExtra: func(content *model.PostContent, result *model.ValidationResult) {
			if content.BoardID == "" {
				result.Add("board_id is required")
			}
			if len(content.Images()) == 0 {
				result.Add("a pin requires one image")
			}
		},
	},
	model.PlatformReddit: {
		maxTitleLen:  300,
		requireTitle: true,
		allowVideo:   true,
		checkExtra: func(content *model.PostContent, result *model.ValidationResult) {
			if content.Subreddit == "" {
				result.Add("subreddit is required")
			}
		},
	},
	model.PlatformInstagram: {
		maxTextLen:   2200,
		maxImages:    10,
		allowVideo:   true,
		requireMedia: true,
	},
	model.PlatformYouTube: {
		maxTextLen:   5000,
		maxTitleLen:  100,
		exactVideos:  1,
		allowVideo:   true,
		requireMedia: true,
		requireTitle: true,
	},
}

// ValidateContent applies the platform's rules and collects every violation
// instead of stopping at the first.
func ValidateContent(platform model.Platform, content *model.PostContent) *model.ValidationResult {
	result := model.NewValidationResult()
	rules, ok := platformRules[platform]
	if !ok {
		result.Add(fmt.Sprintf("unsupported platform %q", platform))
		return result
	}

	images := content.Images()
	videos := content.Videos()

	if rules.maxTextLen > 0 && len([]rune(content.Text)) > rules.maxTextLen {
		result.Add(fmt.Sprintf("text exceeds %d characters", rules.maxTextLen))
	}
	if rules.requireTitle && content.Title == "" {
		result.Add("title is required")
	}
	if rules.maxTitleLen > 0 && len([]rune(content.Title)) > rules.maxTitleLen {
		result.Add(fmt.Sprintf("title exceeds %d characters", rules.maxTitleLen))
	}
	if rules.requireMedia && len(content.Media) == 0 {
		result.Add("media is required")
	}
	if !rules.allowVideo && len(videos) > 0 {
		result.Add("video is not supported")
	}
	if rules.exactVideos > 0 {
		if len(videos) != rules.exactVideos {
			result.Add(fmt.Sprintf("exactly %d video required, got %d", rules.exactVideos, len(videos)))
		}
		if len(images) > 0 {
			result.Add("images cannot be combined with video")
		}
	} else {
		if rules.maxImages > 0 && len(images) > rules.maxImages {
			result.Add(fmt.Sprintf("at most %d images allowed, got %d", rules.maxImages, len(images)))
		}
		if len(videos) > 1 {
			result.Add("at most one video allowed")
		}
		if len(videos) == 1 && len(images) > 0 {
			result.Add("images cannot be combined with video")
		}
	}
	if rules.checkExtra != nil {
		rules.checkExtra(content, result)
	}
	return result
}
