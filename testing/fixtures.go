// Package testing provides test utilities and database setup for testing the dashboard
package testing

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/opsdash/opsdash/models"
	"github.com/opsdash/opsdash/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestProfile creates an active social profile with generated identifiers
func (tf *TestFixtures) CreateTestProfile(name string) (*models.SocialProfile, error) {
	suffix := rand.Intn(1_000_000)

	profile := &models.SocialProfile{
		ID:         uuid.New().String(),
		UserEmail:  fmt.Sprintf("operator.%d@example.com", suffix),
		AdspowerID: fmt.Sprintf("ap-%06d", suffix),
		Name:       name,
		Active:     utils.ToPtr(true),
		CreatedAt:  utils.UTCNow(),
		UpdatedAt:  utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(profile).Error; err != nil {
		return nil, fmt.Errorf("failed to create test profile: %w", err)
	}
	return profile, nil
}

// CreateInactiveProfile creates a profile excluded from task generation
func (tf *TestFixtures) CreateInactiveProfile(name string) (*models.SocialProfile, error) {
	profile, err := tf.CreateTestProfile(name)
	if err != nil {
		return nil, err
	}
	if err := tf.DB.DB.Model(profile).Update("active", false).Error; err != nil {
		return nil, fmt.Errorf("failed to deactivate test profile: %w", err)
	}
	profile.Active = utils.ToPtr(false)
	return profile, nil
}

// CreateTestGroup creates a Facebook group with a unique URL
func (tf *TestFixtures) CreateTestGroup(name string) (*models.FacebookGroup, error) {
	group := &models.FacebookGroup{
		Name: name,
		URL:  fmt.Sprintf("https://www.facebook.com/groups/%d", rand.Int63n(1_000_000_000_000)),
	}

	if err := tf.DB.DB.Create(group).Error; err != nil {
		return nil, fmt.Errorf("failed to create test group: %w", err)
	}
	return group, nil
}

// AssignRole links a profile to a group with the given role
func (tf *TestFixtures) AssignRole(profileID string, groupID uint, role string) (*models.ProfileGroup, error) {
	assignment := &models.ProfileGroup{
		ProfileID: profileID,
		GroupID:   groupID,
		Role:      role,
	}

	if err := tf.DB.DB.Create(assignment).Error; err != nil {
		return nil, fmt.Errorf("failed to create test assignment: %w", err)
	}
	return assignment, nil
}

// CreateTestCustomer creates a customer row in the given status
func (tf *TestFixtures) CreateTestCustomer(name, status string) (*models.Customer, error) {
	customer := &models.Customer{
		ID:              uuid.New().String(),
		Name:            name,
		Status:          status,
		GroupsPurchased: []string{},
		CreatedAt:       utils.UTCNow(),
		UpdatedAt:       utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(customer).Error; err != nil {
		return nil, fmt.Errorf("failed to create test customer: %w", err)
	}
	return customer, nil
}

// CreateTestSession creates an active operator session
func (tf *TestFixtures) CreateTestSession(operatorEmail string) (*models.OperatorSession, error) {
	refresh := uuid.New().String()
	session := &models.OperatorSession{
		OperatorEmail:  operatorEmail,
		SessionToken:   uuid.New().String(),
		RefreshToken:   &refresh,
		IsActive:       utils.ToPtr(true),
		CreatedAt:      utils.UTCNow(),
		LastAccessedAt: utils.UTCNow(),
		ExpiresAt:      utils.UTCNowAdd(utils.SessionTimeout),
	}

	if err := tf.DB.DB.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create test session: %w", err)
	}
	return session, nil
}
