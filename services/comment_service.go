package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"inkwell-api/models"
	"inkwell-api/repositories"
)

type CommentService struct {
	comments *repositories.CommentRepository
	posts    *PostService
	maxDepth int
	log      *zap.SugaredLogger
}

// NewCommentService limits reply chains to maxDepth levels; a non-positive
// value means no limit beyond cycle detection.
func NewCommentService(comments *repositories.CommentRepository, posts *PostService, maxDepth int, log *zap.SugaredLogger) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		maxDepth: maxDepth,
		log:      log,
	}
}

// AddComment stores a comment on a post the author can see. parentID, when
// set, must name a comment on the same post.
func (cs *CommentService) AddComment(ctx context.Context, author *models.User, postID, text string, parentID *string) (*models.Comment, error) {
	if author == nil {
		return nil, userError(ErrAuth, "Login Required! Please log in/Register to leave a comment.")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, newValidationError("text", "comment text is required.")
	}

	post, err := cs.posts.Get(ctx, author, postID, "")
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:       uuid.New().String(),
		PostID:   post.ID,
		AuthorID: author.ID,
		Text:     text,
	}

	if parentID != nil && strings.TrimSpace(*parentID) != "" {
		parent, err := cs.comments.FindByID(ctx, strings.TrimSpace(*parentID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newValidationError("parent_id", "the comment you are replying to does not exist.")
			}
			return nil, err
		}
		if parent.PostID != post.ID {
			return nil, newValidationError("parent_id", "replies must belong to the same post as the comment they answer.")
		}
		if err := cs.checkAncestry(ctx, comment.ID, parent); err != nil {
			return nil, err
		}
		comment.ParentID = &parent.ID
	}

	if err := cs.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	comment.Author = *author

	cs.log.Infow("comment added", "comment_id", comment.ID, "post_id", post.ID, "reply", comment.ParentID != nil)
	return comment, nil
}

// checkAncestry walks from parent up to the root. It rejects chains that
// loop back on themselves or on the new comment, and chains deeper than
// maxDepth.
func (cs *CommentService) checkAncestry(ctx context.Context, commentID string, parent *models.Comment) error {
	visited := map[string]bool{commentID: true}
	depth := 1
	current := parent

	for {
		if visited[current.ID] {
			return newValidationError("parent_id", "a comment cannot reply to one of its own replies.")
		}
		visited[current.ID] = true

		if cs.maxDepth > 0 && depth >= cs.maxDepth {
			return newValidationError("parent_id", "this conversation is nested too deeply to reply to.")
		}
		if current.ParentID == nil {
			return nil
		}

		next, err := cs.comments.FindByID(ctx, *current.ParentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		current = next
		depth++
	}
}

// Thread returns the top-level comments of a post visible to viewer, with
// their replies nested underneath. Each comment appears at most once,
// whatever the stored links.
func (cs *CommentService) Thread(ctx context.Context, viewer *models.User, postID string) ([]*models.CommentNode, error) {
	post, err := cs.posts.Get(ctx, viewer, postID, "")
	if err != nil {
		return nil, err
	}
	postID = post.ID

	comments, err := cs.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}

	nodes := make(map[string]*models.CommentNode, len(comments))
	children := make(map[string][]*models.CommentNode)
	roots := make([]*models.CommentNode, 0)

	for i := range comments {
		node := &models.CommentNode{Comment: comments[i], Replies: []*models.CommentNode{}}
		nodes[node.ID] = node
		if node.ParentID == nil {
			roots = append(roots, node)
		} else {
			children[*node.ParentID] = append(children[*node.ParentID], node)
		}
	}

	attached := make(map[string]bool, len(nodes))
	queue := append([]*models.CommentNode(nil), roots...)
	for _, root := range roots {
		attached[root.ID] = true
	}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, child := range children[node.ID] {
			if attached[child.ID] {
				continue
			}
			attached[child.ID] = true
			node.Replies = append(node.Replies, child)
			queue = append(queue, child)
		}
	}

	if len(attached) < len(nodes) {
		cs.log.Warnw("comments unreachable from any top-level comment", "post_id", postID, "count", len(nodes)-len(attached))
	}
	return roots, nil
}
