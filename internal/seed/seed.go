// Package seed popula o banco de documentos com papéis e dados de exemplo.
package seed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/TTTT0803/VKUMentor-App/internal/auth"
	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
	"github.com/TTTT0803/VKUMentor-App/internal/repo"
)

// Ids fixos dos papéis; perfis referenciam estes documentos.
const (
	RoleAdminID  = "role_admin"
	RoleMenteeID = "role_mentee"
	RoleMentorID = "role_mentor"
)

const (
	sampleAvatar    = "https://www.gravatar.com/avatar/?d=mp"
	sampleCreatedAt = "2025-05-07T03:00:00Z"
)

// Options parametriza a carga.
type Options struct {
	Password string
	Admins   int
	Mentees  int
	Mentors  int
	// Pending é quantos dos últimos mentores ficam aguardando aprovação.
	Pending int
	Posts   int
}

// DefaultOptions reproduz o conjunto de exemplo do app.
func DefaultOptions() Options {
	return Options{Password: "123456", Admins: 2, Mentees: 3, Mentors: 9, Pending: 3, Posts: 9}
}

// Summary conta documentos gravados.
type Summary struct {
	Skipped bool           `json:"skipped"`
	Counts  map[string]int `json:"counts"`
}

var postTitles = []string{
	"Lập trình Android cơ bản",
	"Hướng dẫn sử dụng Firebase",
	"Tối ưu hóa với Jetpack Compose",
	"Debug hiệu quả trong Android Studio",
	"Sử dụng Kotlin Coroutines",
	"Tích hợp Cloudinary",
	"Phát triển ứng dụng đa nền tảng",
	"Quản lý trạng thái với ViewModel",
	"Thiết kế UI với Material Design",
}

// Run grava papéis, usuários, mentores, posts e contratações.
// Não faz nada quando a coleção roles já possui documentos.
func Run(ctx context.Context, store docstore.Store, opts Options) (Summary, error) {
	q := repo.New(store)
	empty, err := q.IsEmpty(ctx, repo.RolesCollection)
	if err != nil {
		return Summary{}, err
	}
	if !empty {
		log.Info().Msg("seed: roles já populada, nada a fazer")
		return Summary{Skipped: true}, nil
	}

	hash, err := auth.Hash(opts.Password)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Counts: map[string]int{}}
	put := func(collection, id string, v any) error {
		fields, err := repo.Encode(v)
		if err != nil {
			return err
		}
		if err := store.Set(ctx, collection, id, fields); err != nil {
			return fmt.Errorf("seed: %s/%s: %w", collection, id, err)
		}
		sum.Counts[collection]++
		return nil
	}

	for id, name := range map[string]string{RoleAdminID: "Admin", RoleMenteeID: "Mentee", RoleMentorID: "Mentor"} {
		if err := put(repo.RolesCollection, id, repo.Role{RoleName: name}); err != nil {
			return Summary{}, err
		}
	}

	user := func(prefix, title, role string, i int) repo.User {
		return repo.User{
			Username:     fmt.Sprintf("%s %d", title, i),
			Email:        fmt.Sprintf("%s%d@gmail.com", prefix, i),
			IDRole:       role,
			Avatar:       sampleAvatar,
			CreatedAt:    sampleCreatedAt,
			PasswordHash: hash,
		}
	}

	for i := 1; i <= opts.Admins; i++ {
		if err := put(repo.UsersCollection, fmt.Sprintf("admin_%d", i), user("admin", "Admin", RoleAdminID, i)); err != nil {
			return Summary{}, err
		}
	}
	mentees := make([]string, 0, opts.Mentees)
	for i := 1; i <= opts.Mentees; i++ {
		id := fmt.Sprintf("mentee_%d", i)
		if err := put(repo.UsersCollection, id, user("mentee", "Mentee", RoleMenteeID, i)); err != nil {
			return Summary{}, err
		}
		mentees = append(mentees, id)
	}

	approved := make([]string, 0, opts.Mentors)
	for i := 1; i <= opts.Mentors; i++ {
		id := fmt.Sprintf("mentor_%d", i)
		status := repo.MentorApproved
		if i > opts.Mentors-opts.Pending {
			status = repo.MentorPending
		}
		// Pendentes ainda não foram promovidos.
		role := RoleMentorID
		if status == repo.MentorPending {
			role = RoleMenteeID
		}
		if err := put(repo.UsersCollection, id, user("mentor", "Mentor", role, i)); err != nil {
			return Summary{}, err
		}
		if err := put(repo.MentorInfoCollection, id, repo.MentorInfo{
			Name:           fmt.Sprintf("Mentor %d", i),
			Expertise:      fmt.Sprintf("Chuyên môn %d", i),
			Achievements:   fmt.Sprintf("Thành tựu %d", i),
			Organization:   fmt.Sprintf("Tổ chức %d", i),
			ReferralSource: fmt.Sprintf("Nguồn %d", i),
			Status:         status,
			Image:          sampleAvatar,
			UserID:         id,
		}); err != nil {
			return Summary{}, err
		}
		if status == repo.MentorApproved {
			approved = append(approved, id)
		}
	}

	for i := 1; i <= opts.Posts && len(approved) > 0; i++ {
		if err := put(repo.CommunityDocumentsCollection, fmt.Sprintf("post_%d", i), repo.CommunityDocument{
			Title:    postTitles[(i-1)%len(postTitles)],
			Content:  fmt.Sprintf("Conteúdo de exemplo %d.", i),
			Date:     fmt.Sprintf("2025-05-07T%02d:00:00Z", i),
			MentorID: approved[(i-1)%len(approved)],
		}); err != nil {
			return Summary{}, err
		}
	}

	// Cada mentee contrata dois mentores aprovados em sequência.
	for mi, mentee := range mentees {
		for k := 0; k < 2 && k < len(approved); k++ {
			mentor := approved[(mi+k)%len(approved)]
			if err := put(repo.MentorHiresCollection, repo.HireID(mentee, mentor), repo.MentorHire{
				MenteeID: mentee,
				MentorID: mentor,
				HireDate: fmt.Sprintf("2025-05-07T%02d:00:00Z", k+1),
			}); err != nil {
				return Summary{}, err
			}
		}
	}

	if err := put(repo.CompetitionsCollection, "competition_1", repo.Competition{
		Name:        "Coding Challenge 2025",
		Description: "Competição para jovens desenvolvedores",
		Date:        "2025-04-10",
	}); err != nil {
		return Summary{}, err
	}
	if err := put(repo.UniversityPartnersCollection, "partner_1", repo.UniversityPartner{
		Name:     "Đại học Việt - Hàn",
		Location: "Đà Nẵng, Việt Nam",
	}); err != nil {
		return Summary{}, err
	}
	if err := put(repo.SliderImagesCollection, "slider_1", repo.SliderImage{
		Image:   sampleAvatar,
		Caption: "Bem-vindo ao VKU Mentor",
	}); err != nil {
		return Summary{}, err
	}

	log.Info().Interface("counts", sum.Counts).Msg("seed: concluído")
	return sum, nil
}
