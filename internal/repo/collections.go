package repo

// Nomes das coleções do banco de documentos.
const (
	RolesCollection              = "roles"
	UsersCollection              = "users"
	MentorInfoCollection         = "mentor_info"
	CompetitionsCollection       = "competitions"
	MentorRatingCollection       = "mentor_rating"
	MentorHiresCollection        = "mentor_hires"
	UniversityPartnersCollection = "university_partners"
	CommunityDocumentsCollection = "community_documents"
	SliderImagesCollection       = "slider_images"
)

// Status de cadastro de mentor.
const (
	MentorPending  = "pending"
	MentorApproved = "approved"
	MentorRejected = "rejected"
)

// Papéis conhecidos (sempre em minúsculas após resolução).
const (
	RoleAdmin  = "admin"
	RoleMentor = "mentor"
	RoleMentee = "mentee"
)
