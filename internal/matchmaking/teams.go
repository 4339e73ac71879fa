package matchmaking

import "github.com/rl-arena/arena-matchmaker/internal/models"

// Shuffler 팀 배정에 쓰이는 난수원. *rand.Rand가 그대로 만족한다
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// SplitTeams 플레이어를 무작위로 섞어 같은 크기의 두 팀으로 나눈다.
// 인원은 짝수여야 한다 (MATCH_SIZE 검증에서 보장).
func SplitTeams(players []*models.Player, shuffler Shuffler) [2][]string {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}

	shuffler.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	half := len(ids) / 2
	return [2][]string{
		append([]string(nil), ids[:half]...),
		append([]string(nil), ids[half:]...),
	}
}
