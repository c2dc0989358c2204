package repo

import (
	"github.com/mitchellh/mapstructure"

	"github.com/TTTT0803/VKUMentor-App/internal/docstore"
)

// Role representa documento da coleção roles.
type Role struct {
	ID       string `json:"id" mapstructure:"-"`
	RoleName string `json:"roleName" mapstructure:"roleName"`
}

// User representa perfil em users. O id do documento é o uid da sessão.
type User struct {
	UID          string `json:"uid" mapstructure:"-"`
	Username     string `json:"username" mapstructure:"username"`
	Email        string `json:"email" mapstructure:"email"`
	IDRole       string `json:"idRole" mapstructure:"idRole"`
	Avatar       string `json:"avatar" mapstructure:"avatar"`
	CreatedAt    string `json:"createdAt" mapstructure:"createdAt"`
	PasswordHash string `json:"-" mapstructure:"passwordHash"`
	Disabled     bool   `json:"disabled,omitempty" mapstructure:"disabled"`
}

// MentorInfo representa cadastro de mentor.
type MentorInfo struct {
	ID                   string `json:"id" mapstructure:"-"`
	Name                 string `json:"name" mapstructure:"name"`
	Achievements         string `json:"achievements,omitempty" mapstructure:"achievements"`
	Expertise            string `json:"expertise,omitempty" mapstructure:"expertise"`
	Organization         string `json:"organization,omitempty" mapstructure:"organization"`
	ReferralSource       string `json:"referralSource,omitempty" mapstructure:"referralSource"`
	Status               string `json:"status" mapstructure:"status"`
	SuggestionsQuestions string `json:"suggestionsQuestions,omitempty" mapstructure:"suggestionsQuestions"`
	Image                string `json:"image,omitempty" mapstructure:"image"`
	UserID               string `json:"userId" mapstructure:"userId"`
}

// CommunityDocument representa post da comunidade.
type CommunityDocument struct {
	ID       string `json:"id" mapstructure:"-"`
	Title    string `json:"title" mapstructure:"title"`
	Content  string `json:"content" mapstructure:"content"`
	Date     string `json:"date" mapstructure:"date"`
	Image    string `json:"image,omitempty" mapstructure:"image"`
	FileURL  string `json:"fileUrl,omitempty" mapstructure:"fileUrl"`
	MentorID string `json:"mentorId" mapstructure:"mentorId"`
}

// MentorRating representa avaliação de mentor feita por mentee.
type MentorRating struct {
	ID       string `json:"id" mapstructure:"-"`
	MentorID string `json:"mentorId" mapstructure:"mentorId"`
	UserID   string `json:"userId" mapstructure:"userId"`
	Rating   int    `json:"rating" mapstructure:"rating"`
	Comment  string `json:"comment,omitempty" mapstructure:"comment"`
	Date     string `json:"date" mapstructure:"date"`
}

// MentorHire vincula mentee a mentor contratado.
type MentorHire struct {
	ID       string `json:"id" mapstructure:"-"`
	MenteeID string `json:"menteeId" mapstructure:"menteeId"`
	MentorID string `json:"mentorId" mapstructure:"mentorId"`
	HireDate string `json:"hireDate" mapstructure:"hireDate"`
}

// Competition representa competição divulgada na home.
type Competition struct {
	ID          string `json:"id" mapstructure:"-"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	Date        string `json:"date" mapstructure:"date"`
	Image       string `json:"image,omitempty" mapstructure:"image"`
}

// UniversityPartner representa universidade parceira.
type UniversityPartner struct {
	ID          string `json:"id" mapstructure:"-"`
	Name        string `json:"name" mapstructure:"name"`
	Location    string `json:"location,omitempty" mapstructure:"location"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	Image       string `json:"image,omitempty" mapstructure:"image"`
}

// SliderImage representa banner do carrossel.
type SliderImage struct {
	ID      string `json:"id" mapstructure:"-"`
	Image   string `json:"image" mapstructure:"image"`
	Caption string `json:"caption,omitempty" mapstructure:"caption"`
	Link    string `json:"link,omitempty" mapstructure:"link"`
}

// Decode converte campos do documento no modelo informado.
// Conversões fracas cobrem números que voltam do JSONB como float64.
func Decode(doc docstore.Document, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(doc.Fields)
}

// Encode converte modelo em campos de documento, omitindo o id.
func Encode(in any) (map[string]any, error) {
	fields := map[string]any{}
	if err := mapstructure.Decode(in, &fields); err != nil {
		return nil, err
	}
	delete(fields, "-")
	return fields, nil
}

// DecodeAll decodifica lista de documentos preservando a ordem.
func DecodeAll[T any](docs []docstore.Document, setID func(*T, string)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := Decode(doc, &item); err != nil {
			return nil, err
		}
		setID(&item, doc.ID)
		out = append(out, item)
	}
	return out, nil
}
