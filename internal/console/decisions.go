package console

import (
	"context"
	"strings"

	"diamondhost/admin-console/internal/apperr"
	"diamondhost/admin-console/internal/model"
	"diamondhost/admin-console/internal/notify"
)

type Verdict string

const (
	Accept Verdict = "accept"
	Reject Verdict = "reject"
)

func ParseVerdict(raw string) (Verdict, bool) {
	switch Verdict(strings.ToLower(strings.TrimSpace(raw))) {
	case Accept:
		return Accept, true
	case Reject:
		return Reject, true
	}
	return "", false
}

type EstateDecision struct {
	EstateID     string             `json:"estateId"`
	Status       model.EstateStatus `json:"status"`
	SMSDelivered bool               `json:"smsDelivered"`
	Redirect     string             `json:"redirect"`
}

// DecideEstate moves a pending estate to accepted or rejected. The owner SMS
// is best effort: when it fails the decision still stands and the result
// says so.
func (s *Service) DecideEstate(ctx context.Context, estateID string, verdict Verdict, confirmed bool) (EstateDecision, error) {
	if !confirmed {
		return EstateDecision{}, apperr.ErrConfirmationMissing
	}
	target, err := estateTarget(verdict)
	if err != nil {
		return EstateDecision{}, err
	}

	estate, err := s.findEstate(ctx, estateID)
	if err != nil {
		return EstateDecision{}, err
	}
	if estate.Status().Terminal() {
		return EstateDecision{}, apperr.Conflict("estate_already_decided", "estate has already been "+statusWord(estate.Status()))
	}
	segment, ok := estate.Category().RouteSegment()
	if !ok {
		return EstateDecision{}, apperr.Validation("unknown_category", "estate has no known category")
	}

	if err := s.backend.SetEstateAcceptance(ctx, segment, estate.ID, target); err != nil {
		return EstateDecision{}, err
	}
	s.metrics.Transition("estate", statusWord(target))
	s.log.Info("estate decided", "estate", estate.ID, "status", statusWord(target))

	result := EstateDecision{EstateID: estate.ID, Status: target, Redirect: "/new-estate"}
	if err := s.backend.SendDecisionSMS(ctx, target, estate.Phone, s.smsSender); err != nil {
		s.metrics.SMSFailure()
		s.log.Warn("decision sms failed", "estate", estate.ID, "err", err)
	} else {
		result.SMSDelivered = true
	}

	if s.events != nil {
		s.events.Broadcast(notify.Event{Type: notify.EventEstateDecision, Items: []EstateDecision{result}},
			model.RoleAdmin, model.RoleSuperAdmin)
	}
	return result, nil
}

func estateTarget(verdict Verdict) (model.EstateStatus, error) {
	switch verdict {
	case Accept:
		return model.EstateAccepted, nil
	case Reject:
		return model.EstateRejected, nil
	}
	return "", apperr.Validation("invalid_decision", "decision must be accept or reject")
}

func statusWord(status model.EstateStatus) string {
	switch status {
	case model.EstateAccepted:
		return "accepted"
	case model.EstateRejected:
		return "rejected"
	default:
		return "pending"
	}
}

type PostDecision struct {
	PostID string           `json:"postId"`
	Status model.PostStatus `json:"status"`
	Label  string           `json:"label"`
}

// DecidePost accepts or rejects a post that is still under process.
func (s *Service) DecidePost(ctx context.Context, postID string, verdict Verdict, confirmed bool) (PostDecision, error) {
	if !confirmed {
		return PostDecision{}, apperr.ErrConfirmationMissing
	}
	var target model.PostStatus
	switch verdict {
	case Accept:
		target = model.PostAccepted
	case Reject:
		target = model.PostRejected
	default:
		return PostDecision{}, apperr.Validation("invalid_decision", "decision must be accept or reject")
	}

	posts, err := s.posts.Load(ctx)
	if err != nil {
		return PostDecision{}, err
	}
	var post *model.Post
	for i := range posts {
		if posts[i].ID == postID {
			post = &posts[i]
			break
		}
	}
	if post == nil {
		return PostDecision{}, apperr.NotFound("post_not_found")
	}
	if post.PostStatus().Terminal() {
		return PostDecision{}, apperr.Conflict("post_already_decided", "post is already "+strings.ToLower(post.PostStatus().Label()))
	}

	if err := s.backend.SetPostStatus(ctx, postID, target); err != nil {
		return PostDecision{}, err
	}
	s.metrics.Transition("post", strings.ToLower(target.Label()))
	s.log.Info("post decided", "post", postID, "status", target.Label())
	return PostDecision{PostID: postID, Status: target, Label: target.Label()}, nil
}

// ChangeTier reassigns a user's account tier. Any tier may move to any
// other.
func (s *Service) ChangeTier(ctx context.Context, userID, rawTier string) (model.AccountTier, error) {
	tier, ok := model.ParseTier(rawTier)
	if !ok {
		return "", apperr.Validation("invalid_tier", "tier must be 1 (Star), 2 (Premium) or 3 (Premium Plus)")
	}
	if strings.TrimSpace(userID) == "" {
		return "", apperr.Validation("missing_user", "user id is required")
	}
	if err := s.backend.SetUserTier(ctx, userID, tier); err != nil {
		return "", err
	}
	s.metrics.Transition("tier", tier.Label())
	s.log.Info("account tier changed", "user", userID, "tier", tier.Label())
	return tier, nil
}

// AddComment posts an admin reply under a customer feedback entry, signed
// with the caller's first name.
func (s *Service) AddComment(ctx context.Context, feedbackID, text string, author *model.Profile) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return apperr.Validation("empty_comment", "comment text is required")
	}
	name := "Unknown User"
	if author != nil && strings.TrimSpace(author.FirstName) != "" {
		name = strings.TrimSpace(author.FirstName)
	}
	return s.backend.AddFeedbackComment(ctx, feedbackID, text, name)
}
