package patient

import (
	"time"

	"github.com/google/uuid"
)

// HealthUnit is a primary care unit (Unidade de Saúde) of the municipal network.
type HealthUnit struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Nome      string    `db:"nome" json:"nome"`
	Bairro    *string   `db:"bairro" json:"bairro,omitempty"`
	Regiao    *string   `db:"regiao" json:"regiao,omitempty"`
	Ativo     bool      `db:"ativo" json:"ativo"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Patient is the subset of the registry the assessment engine reads.
type Patient struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	NomeCompleto   string     `db:"nome_completo" json:"nome_completo"`
	CPF            *string    `db:"cpf" json:"cpf,omitempty"`
	Idade          int        `db:"idade" json:"idade"`
	Telefone       *string    `db:"telefone" json:"telefone,omitempty"`
	Bairro         *string    `db:"bairro" json:"bairro,omitempty"`
	UnidadeSaudeID *uuid.UUID `db:"unidade_saude_id" json:"unidade_saude_id,omitempty"`
	DataCadastro   time.Time  `db:"data_cadastro" json:"data_cadastro"`
	Ativo          bool       `db:"ativo" json:"ativo"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
