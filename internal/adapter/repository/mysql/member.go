package mysql

import (
	"context"
	"errors"

	memberDomain "quorum-lending/internal/domain/member"

	"gorm.io/gorm"
)

type MemberRepository struct{ db *gorm.DB }

func NewMemberRepository(db *gorm.DB) *MemberRepository { return &MemberRepository{db: db} }

func (r *MemberRepository) Create(ctx context.Context, m *memberDomain.Member) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return memberDomain.ErrDuplicateMember
		}
		return err
	}
	return nil
}

func (r *MemberRepository) Get(ctx context.Context, principal string) (*memberDomain.Member, error) {
	var out memberDomain.Member
	if err := r.db.WithContext(ctx).Where("principal = ?", principal).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, memberDomain.ErrNotAMember
		}
		return nil, err
	}
	return &out, nil
}

// Delete is a hard delete: the member's weight is erased with the row.
func (r *MemberRepository) Delete(ctx context.Context, principal string) error {
	res := r.db.WithContext(ctx).Where("principal = ?", principal).Delete(&memberDomain.Member{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return memberDomain.ErrNotAMember
	}
	return nil
}

func (r *MemberRepository) List(ctx context.Context) ([]memberDomain.Member, error) {
	out := []memberDomain.Member{}
	err := r.db.WithContext(ctx).Order("created_at ASC, principal ASC").Find(&out).Error
	return out, err
}
